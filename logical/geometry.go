package logical

import (
	"fmt"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// GeometryExtensionName is the Arrow extension name of geometry literals.
const GeometryExtensionName = "geoarrow.wkb"

// GeometryExtensionType is the Arrow extension type of geometry literals.
// Values are orb.Geometry in memory and WKB (Well-Known Binary) on the wire.
type GeometryExtensionType struct {
	arrow.ExtensionBase
}

// NewGeometryExtensionType creates a geometry type backed by Binary storage.
func NewGeometryExtensionType() *GeometryExtensionType {
	return &GeometryExtensionType{
		ExtensionBase: arrow.ExtensionBase{
			Storage: arrow.BinaryTypes.Binary,
		},
	}
}

// GeometryType is the default geometry literal type.
var GeometryType arrow.DataType = NewGeometryExtensionType()

func (g *GeometryExtensionType) ArrayType() reflect.Type {
	return reflect.TypeOf((*array.Binary)(nil))
}

func (g *GeometryExtensionType) ExtensionName() string {
	return GeometryExtensionName
}

func (g *GeometryExtensionType) String() string {
	return "extension<" + GeometryExtensionName + ">"
}

// Serialize returns the extension metadata (empty for plain WKB).
func (g *GeometryExtensionType) Serialize() string {
	return ""
}

func (g *GeometryExtensionType) Deserialize(storageType arrow.DataType, data string) (arrow.ExtensionType, error) {
	if !arrow.TypeEqual(storageType, arrow.BinaryTypes.Binary) &&
		!arrow.TypeEqual(storageType, arrow.BinaryTypes.LargeBinary) {
		return nil, fmt.Errorf("invalid storage type for geometry: %s (expected Binary or LargeBinary)", storageType)
	}
	return &GeometryExtensionType{
		ExtensionBase: arrow.ExtensionBase{Storage: storageType},
	}, nil
}

func (g *GeometryExtensionType) ExtensionEquals(other arrow.ExtensionType) bool {
	otherGeom, ok := other.(*GeometryExtensionType)
	if !ok {
		return false
	}
	return arrow.TypeEqual(g.StorageType(), otherGeom.StorageType())
}

// IsGeometry reports whether t is the geometry extension type.
func IsGeometry(t arrow.DataType) bool {
	ext, ok := t.(arrow.ExtensionType)
	return ok && ext.ExtensionName() == GeometryExtensionName
}

// EncodeGeometry converts an orb.Geometry to WKB bytes.
func EncodeGeometry(geom orb.Geometry) ([]byte, error) {
	if err := ValidateGeometry(geom); err != nil {
		return nil, err
	}
	return wkb.Marshal(geom)
}

// DecodeGeometry converts WKB bytes to an orb.Geometry.
func DecodeGeometry(wkbBytes []byte) (orb.Geometry, error) {
	if len(wkbBytes) == 0 {
		return nil, fmt.Errorf("cannot decode empty WKB data")
	}
	return wkb.Unmarshal(wkbBytes)
}

// ValidateGeometry checks that a geometry can be represented as WKB.
func ValidateGeometry(geom orb.Geometry) error {
	switch g := geom.(type) {
	case nil:
		return fmt.Errorf("geometry is nil")
	case orb.Bound:
		return fmt.Errorf("bounds cannot be stored as WKB (convert to polygon)")
	case orb.LineString:
		if len(g) < 2 {
			return fmt.Errorf("linestring must have at least 2 points, has %d", len(g))
		}
	case orb.Polygon:
		for i, ring := range g {
			if len(ring) < 4 {
				return fmt.Errorf("polygon ring %d must have at least 4 points, has %d", i, len(ring))
			}
			if !ring[0].Equal(ring[len(ring)-1]) {
				return fmt.Errorf("polygon ring %d is not closed", i)
			}
		}
	case orb.MultiPolygon:
		for i, poly := range g {
			if err := ValidateGeometry(poly); err != nil {
				return fmt.Errorf("multipolygon[%d]: %w", i, err)
			}
		}
	case orb.Collection:
		for i, child := range g {
			if err := ValidateGeometry(child); err != nil {
				return fmt.Errorf("collection[%d]: %w", i, err)
			}
		}
	}
	return nil
}

// RegisterGeometryExtension registers the geometry extension type with Arrow
// so that decoded type descriptions can resolve it by name.
func RegisterGeometryExtension() {
	_ = arrow.RegisterExtensionType(NewGeometryExtensionType())
}

func init() {
	RegisterGeometryExtension()
}
