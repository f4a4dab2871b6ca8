package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"binroute/internal/model"
)

// ErrBadInstance marks an instance file that parsed as JSON but fails the
// structural checks below.
var ErrBadInstance = errors.New("bad instance")

// Codes reserved for the two depots in the distance map.
const (
	startCode = "start_point"
	endCode   = "end_point"
)

type instanceFile struct {
	EstimateCode string    `json:"estimateCode"`
	BaseParam    baseParam `json:"algorithmBaseParamDto"`
	Boxes        []boxDTO  `json:"boxes"`
}

type baseParam struct {
	TruckTypes  []truckTypeDTO     `json:"truckTypeDtoList"`
	Platforms   []platformDTO      `json:"platformDtoList"`
	DistanceMap map[string]float64 `json:"distanceMap"`
}

type truckTypeDTO struct {
	TruckTypeID   string  `json:"truckTypeId"`
	TruckTypeCode string  `json:"truckTypeCode"`
	Length        float64 `json:"length"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	MaxLoad       float64 `json:"maxLoad"`
}

type platformDTO struct {
	PlatformCode string  `json:"platformCode"`
	MustFirst    bool    `json:"mustFirst"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
}

type boxDTO struct {
	SpuBoxID     string  `json:"spuBoxId"`
	PlatformCode string  `json:"platformCode"`
	Length       float64 `json:"length"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Weight       float64 `json:"weight"`
}

// LoadFile reads and parses one instance file. The instance code falls back
// to the file name when the payload carries no estimateCode.
func LoadFile(path string) (*model.Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instance: %w", err)
	}
	base := filepath.Base(path)
	code := strings.TrimSuffix(base, filepath.Ext(base))
	return Parse(data, code)
}

// Parse decodes an instance payload. Node 0 is the start depot, node N+1 the
// end depot; customer nodes keep the platform list's order. Pairs absent from
// the distance map stay +Inf so the selector can fall back to coordinates.
func Parse(data []byte, fallbackCode string) (*model.Problem, error) {
	var raw instanceFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode instance: %w", err)
	}
	code := raw.EstimateCode
	if code == "" {
		code = fallbackCode
	}

	if len(raw.BaseParam.TruckTypes) == 0 {
		return nil, fmt.Errorf("%w: no truck types", ErrBadInstance)
	}
	if len(raw.BaseParam.Platforms) == 0 {
		return nil, fmt.Errorf("%w: no platforms", ErrBadInstance)
	}

	vehicles := make([]model.VehicleType, 0, len(raw.BaseParam.TruckTypes))
	for _, t := range raw.BaseParam.TruckTypes {
		if t.TruckTypeCode == "" {
			return nil, fmt.Errorf("%w: truck type without a code", ErrBadInstance)
		}
		if t.Length <= 0 || t.Width <= 0 || t.Height <= 0 || t.MaxLoad <= 0 {
			return nil, fmt.Errorf("%w: truck type %s has non-positive dimensions", ErrBadInstance, t.TruckTypeCode)
		}
		id := t.TruckTypeID
		if id == "" {
			id = t.TruckTypeCode
		}
		vehicles = append(vehicles, model.VehicleType{
			ID:        id,
			Code:      t.TruckTypeCode,
			L:         int64(t.Length),
			W:         int64(t.Width),
			H:         int64(t.Height),
			MaxWeight: t.MaxLoad,
		})
	}

	itemsByPlatform := make(map[string][]model.Item)
	for _, b := range raw.Boxes {
		if b.Length <= 0 || b.Width <= 0 || b.Height <= 0 {
			return nil, fmt.Errorf("%w: box %s has non-positive dimensions", ErrBadInstance, b.SpuBoxID)
		}
		itemsByPlatform[b.PlatformCode] = append(itemsByPlatform[b.PlatformCode], model.Item{
			ID:     b.SpuBoxID,
			L:      int64(b.Length),
			W:      int64(b.Width),
			H:      int64(b.Height),
			Weight: b.Weight,
		})
	}

	nodes := make([]model.Node, 0, len(raw.BaseParam.Platforms)+2)
	nodes = append(nodes, model.Node{ID: 0})
	index := map[string]int{startCode: 0}
	for _, p := range raw.BaseParam.Platforms {
		if p.PlatformCode == "" {
			return nil, fmt.Errorf("%w: platform without a code", ErrBadInstance)
		}
		if _, dup := index[p.PlatformCode]; dup {
			return nil, fmt.Errorf("%w: duplicate platform %s", ErrBadInstance, p.PlatformCode)
		}
		id := len(nodes)
		items := itemsByPlatform[p.PlatformCode]
		for i := range items {
			items[i].NodeID = id
		}
		nodes = append(nodes, model.Node{
			ID:           id,
			PlatformCode: p.PlatformCode,
			Bonded:       p.MustFirst,
			X:            p.X,
			Y:            p.Y,
			Items:        items,
		})
		index[p.PlatformCode] = id
		delete(itemsByPlatform, p.PlatformCode)
	}
	endID := len(nodes)
	nodes = append(nodes, model.Node{ID: endID})
	index[endCode] = endID

	// a box bound to a platform that is not in the route set can never be
	// delivered, so the instance is broken
	if len(itemsByPlatform) > 0 {
		orphans := make([]string, 0, len(itemsByPlatform))
		for p := range itemsByPlatform {
			orphans = append(orphans, p)
		}
		sort.Strings(orphans)
		return nil, fmt.Errorf("%w: boxes reference unknown platform %s", ErrBadInstance, orphans[0])
	}

	matrix := make([][]float64, len(nodes))
	for i := range matrix {
		matrix[i] = make([]float64, len(nodes))
		for j := range matrix[i] {
			if i != j {
				matrix[i][j] = math.Inf(1)
			}
		}
	}
	for key, d := range raw.BaseParam.DistanceMap {
		from, to, ok := strings.Cut(key, "+")
		if !ok {
			continue
		}
		u, okU := index[from]
		v, okV := index[to]
		if !okU || !okV {
			continue
		}
		matrix[u][v] = d
	}

	return &model.Problem{Code: code, Nodes: nodes, Vehicles: vehicles, Matrix: matrix}, nil
}
