package obj

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Property flags which fields of a Material were set by the library.
type Property uint32

// Material properties.
const (
	HasAmbient Property = 1 << iota
	HasDiffuse
	HasSpecular
	HasEmission
	HasDissolve
	HasIllum
	HasSpecularExponent
	HasRefractionIndex
	HasTransmissionFilter
	HasAmbientMap
	HasDiffuseMap
	HasSpecularMap
	HasSpecularHighlightMap
	HasAlphaMap
	HasBumpMap
)

// Material is one newmtl block of an MTL library. Map fields hold the file
// name as written, without texture options.
type Material struct {
	Name string
	Set  Property

	Ambient            [3]float32
	Diffuse            [3]float32
	Specular           [3]float32
	Emission           [3]float32
	TransmissionFilter [3]float32
	Dissolve           float32
	SpecularExponent   float32
	RefractionIndex    float32
	Illum              int

	AmbientMap           string
	DiffuseMap           string
	SpecularMap          string
	SpecularHighlightMap string
	AlphaMap             string
	BumpMap              string
}

// Has reports whether all properties in p were set.
func (m *Material) Has(p Property) bool {
	return m.Set&p == p
}

// MaterialStore holds the materials of every library read into it. A later
// definition replaces an earlier one with the same name.
type MaterialStore struct {
	materials map[string]*Material

	// Warn, if set, is called for every invalid statement.
	Warn func(*LineError)
}

// NewMaterialStore creates an empty store.
func NewMaterialStore() *MaterialStore {
	return &MaterialStore{materials: make(map[string]*Material)}
}

// Len returns the number of stored materials.
func (s *MaterialStore) Len() int { return len(s.materials) }

// Names returns the stored material names in sorted order.
func (s *MaterialStore) Names() []string {
	names := make([]string, 0, len(s.materials))
	for name := range s.materials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Find returns the material called name.
func (s *MaterialStore) Find(name string) (*Material, error) {
	m, ok := s.materials[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMaterialNotFound, name)
	}
	return m, nil
}

// Clear removes every material.
func (s *MaterialStore) Clear() {
	s.materials = make(map[string]*Material)
}

// ReadFile opens path and processes it with Read.
func (s *MaterialStore) ReadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening mtl: %w", err)
	}
	defer f.Close()
	return s.Read(f)
}

// Read adds every material defined in src.
func (s *MaterialStore) Read(src io.Reader) error {
	if s.materials == nil {
		s.materials = make(map[string]*Material)
	}
	var current *Material
	return scan(src, func(st *statement) error {
		if st.keyword == "newmtl" {
			if err := st.checkArgs(1, -1); err != nil {
				s.warn(st, err)
				current = nil
				return nil
			}
			current = &Material{Name: strings.Join(st.args, " ")}
			s.materials[current.Name] = current
			return nil
		}
		if current == nil {
			s.warn(st, fmt.Errorf("%w: %s before newmtl", ErrSyntax, st.keyword))
			return nil
		}
		if err := current.statement(st); err != nil {
			s.warn(st, err)
		}
		return nil
	})
}

func (s *MaterialStore) warn(st *statement, err error) {
	if s.Warn != nil {
		s.Warn(&LineError{Line: st.line, Text: st.text, Err: err})
	}
}

func (m *Material) statement(st *statement) error {
	switch st.keyword {
	case "Ka":
		return m.color(st, &m.Ambient, HasAmbient)
	case "Kd":
		return m.color(st, &m.Diffuse, HasDiffuse)
	case "Ks":
		return m.color(st, &m.Specular, HasSpecular)
	case "Ke":
		return m.color(st, &m.Emission, HasEmission)
	case "Tf":
		return m.color(st, &m.TransmissionFilter, HasTransmissionFilter)
	case "d":
		return m.scalar(st, &m.Dissolve, HasDissolve)
	case "Tr":
		var tr float32
		if err := m.scalar(st, &tr, HasDissolve); err != nil {
			return err
		}
		m.Dissolve = 1 - tr
		return nil
	case "Ns":
		return m.scalar(st, &m.SpecularExponent, HasSpecularExponent)
	case "Ni":
		return m.scalar(st, &m.RefractionIndex, HasRefractionIndex)
	case "illum":
		if err := st.checkArgs(1, 1); err != nil {
			return err
		}
		n, err := strconv.Atoi(st.args[0])
		if err != nil {
			return fmt.Errorf("%w: illumination model %q", ErrSyntax, st.args[0])
		}
		m.Illum = n
		m.Set |= HasIllum
		return nil
	case "map_Ka":
		return m.texture(st, &m.AmbientMap, HasAmbientMap)
	case "map_Kd":
		return m.texture(st, &m.DiffuseMap, HasDiffuseMap)
	case "map_Ks":
		return m.texture(st, &m.SpecularMap, HasSpecularMap)
	case "map_Ns":
		return m.texture(st, &m.SpecularHighlightMap, HasSpecularHighlightMap)
	case "map_d":
		return m.texture(st, &m.AlphaMap, HasAlphaMap)
	case "map_bump", "map_Bump", "bump":
		return m.texture(st, &m.BumpMap, HasBumpMap)
	case "sharpness", "map_aat", "disp", "decal", "refl":
		return nil
	}
	return fmt.Errorf("%w: unknown statement %q", ErrSyntax, st.keyword)
}

// color parses "r [g b]"; a single value applies to all three channels.
// Spectral and CIEXYZ forms are not supported.
func (m *Material) color(st *statement, dst *[3]float32, p Property) error {
	if err := st.checkArgs(1, 3); err != nil {
		return err
	}
	if len(st.args) == 2 {
		return fmt.Errorf("%w: %s takes 1 or 3 values", ErrSyntax, st.keyword)
	}
	var c [3]float32
	if err := parseFloats(st.args, c[:len(st.args)]); err != nil {
		return err
	}
	if len(st.args) == 1 {
		c[1], c[2] = c[0], c[0]
	}
	*dst = c
	m.Set |= p
	return nil
}

func (m *Material) scalar(st *statement, dst *float32, p Property) error {
	args := st.args
	if len(args) == 2 && args[0] == "-halo" {
		args = args[1:]
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: %s takes 1 value, got %d", ErrSyntax, st.keyword, len(st.args))
	}
	var v [1]float32
	if err := parseFloats(args, v[:]); err != nil {
		return err
	}
	*dst = v[0]
	m.Set |= p
	return nil
}

// textureOptionArgs is the number of values following each map option.
var textureOptionArgs = map[string]int{
	"-blendu": 1, "-blendv": 1, "-bm": 1, "-boost": 1, "-cc": 1, "-clamp": 1,
	"-imfchan": 1, "-mm": 2, "-o": 3, "-s": 3, "-t": 3, "-texres": 1, "-type": 1,
}

// texture stores the file name of a map statement, skipping its options.
// File names may contain spaces.
func (m *Material) texture(st *statement, dst *string, p Property) error {
	args := st.args
	for len(args) > 0 {
		n, ok := textureOptionArgs[args[0]]
		if !ok {
			break
		}
		// -o, -s and -t take one to three values.
		if n == 3 {
			n = 1
			for n < 3 && n+1 < len(args) && isNumber(args[n+1]) {
				n++
			}
		}
		if len(args) <= n {
			return fmt.Errorf("%w: option %s is missing values", ErrSyntax, args[0])
		}
		args = args[n+1:]
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: %s has no file name", ErrSyntax, st.keyword)
	}
	*dst = strings.Join(args, " ")
	m.Set |= p
	return nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 32)
	return err == nil
}
