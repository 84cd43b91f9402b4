package loaders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/geometry"
	"github.com/df07/go-photon-raytracer/pkg/lights"
	"github.com/df07/go-photon-raytracer/pkg/log"
	"github.com/df07/go-photon-raytracer/pkg/material"
	"github.com/df07/go-photon-raytracer/pkg/scene"
)

var logger = log.New("loaders")

// vec3 is a JSON [x, y, z] array
type vec3 [3]float64

func (v vec3) toVec3() core.Vec3 { return core.NewVec3(v[0], v[1], v[2]) }

func fromVec3(v core.Vec3) vec3 { return vec3{v.X, v.Y, v.Z} }

// colorJSON is a textured color. A bare [r, g, b] array is an untextured color.
type colorJSON struct {
	Color   vec3   `json:"color"`
	Texture string `json:"texture,omitempty"`
	Scale   *vec3  `json:"scale,omitempty"`
	Offset  vec3   `json:"offset,omitempty"`
}

func (c *colorJSON) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &c.Color)
	}
	type plain colorJSON
	return json.Unmarshal(data, (*plain)(c))
}

type cameraJSON struct {
	Position      vec3    `json:"position"`
	Direction     vec3    `json:"direction"`
	Up            vec3    `json:"up"`
	FOV           float64 `json:"fov"`
	FocalDistance float64 `json:"focalDistance"`
	DOF           float64 `json:"dof"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
}

type photonJSON struct {
	MaxPhotons  int     `json:"maxPhotons"`
	MaxEmitted  int     `json:"maxEmitted"`
	MaxBounces  int     `json:"maxBounces"`
	NearestK    int     `json:"nearestK"`
	Radius      float64 `json:"radius"`
	StoreDirect bool    `json:"storeDirect"`
}

type cacheJSON struct {
	Enabled         bool    `json:"enabled"`
	MinSubdiv       int     `json:"minSubdiv"`
	MaxSubdiv       int     `json:"maxSubdiv"`
	ColorThreshold  float64 `json:"colorThreshold"`
	ZThreshold      float64 `json:"zThreshold"`
	NormalThreshold float64 `json:"normalThreshold"`
	Samples         int     `json:"samples"`
}

type renderJSON struct {
	MinSamples        int        `json:"minSamples"`
	MaxSamples        int        `json:"maxSamples"`
	VarianceThreshold float64    `json:"varianceThreshold"`
	MaxBounces        int        `json:"maxBounces"`
	IndirectDepth     int        `json:"indirectDepth"`
	IndirectSamples   int        `json:"indirectSamples"`
	Gamma             float64    `json:"gamma"`
	Integrator        string     `json:"integrator"`
	Workers           int        `json:"workers"`
	Photon            photonJSON `json:"photon"`
	Cache             cacheJSON  `json:"cache"`
}

type textureJSON struct {
	Type   string  `json:"type"` // "image" or "checker"
	File   string  `json:"file,omitempty"`
	Color1 vec3    `json:"color1,omitempty"`
	Color2 vec3    `json:"color2,omitempty"`
	Checks float64 `json:"checks,omitempty"`
}

type materialJSON struct {
	Type       string     `json:"type,omitempty"` // "blinn" (default) or "multi"
	Diffuse    *colorJSON `json:"diffuse,omitempty"`
	Specular   *colorJSON `json:"specular,omitempty"`
	Reflection *colorJSON `json:"reflection,omitempty"`
	Refraction *colorJSON `json:"refraction,omitempty"`
	Absorption vec3       `json:"absorption,omitempty"`
	Emission   vec3       `json:"emission,omitempty"`
	Glossiness *float64   `json:"glossiness,omitempty"`
	IOR        *float64   `json:"ior,omitempty"`
	Materials  []string   `json:"materials,omitempty"` // Sub-materials of a multi-material
}

type lightJSON struct {
	Type      string  `json:"type"` // "ambient", "directional" or "point"
	Intensity vec3    `json:"intensity"`
	Direction vec3    `json:"direction,omitempty"`
	Position  vec3    `json:"position,omitempty"`
	Size      float64 `json:"size,omitempty"`
}

type rotationJSON struct {
	Axis    vec3    `json:"axis"`
	Degrees float64 `json:"degrees"`
}

type nodeJSON struct {
	Name     string         `json:"name"`
	Object   string         `json:"object,omitempty"` // "sphere", "plane", "mesh" or empty for a group
	Mesh     string         `json:"mesh,omitempty"`   // glTF file of a mesh object
	Material string         `json:"material,omitempty"`
	Position vec3           `json:"position,omitempty"`
	Rotation []rotationJSON `json:"rotation,omitempty"`
	Scale    *vec3          `json:"scale,omitempty"`
	Children []nodeJSON     `json:"children,omitempty"`
}

// sceneJSON is the scene description document
type sceneJSON struct {
	Camera      cameraJSON              `json:"camera"`
	Render      renderJSON              `json:"render"`
	Background  *colorJSON              `json:"background,omitempty"`
	Environment *colorJSON              `json:"environment,omitempty"`
	Textures    map[string]textureJSON  `json:"textures,omitempty"`
	Materials   map[string]materialJSON `json:"materials"`
	Lights      []lightJSON             `json:"lights"`
	Nodes       []nodeJSON              `json:"nodes"`
}

// defaultSceneJSON returns a document holding the default camera and render settings,
// so fields missing from a file keep their defaults
func defaultSceneJSON() sceneJSON {
	cam := geometry.DefaultCameraConfig()
	cfg := scene.DefaultSamplingConfig()
	return sceneJSON{
		Camera: cameraJSON{
			Position:      fromVec3(cam.Position),
			Direction:     fromVec3(cam.Direction),
			Up:            fromVec3(cam.Up),
			FOV:           cam.FOV,
			FocalDistance: cam.FocalDistance,
			DOF:           cam.DOF,
			Width:         cam.Width,
			Height:        cam.Height,
		},
		Render: renderJSON{
			MinSamples:        cfg.MinSamples,
			MaxSamples:        cfg.MaxSamples,
			VarianceThreshold: cfg.VarianceThreshold,
			MaxBounces:        cfg.MaxBounces,
			IndirectDepth:     cfg.IndirectDepth,
			IndirectSamples:   cfg.IndirectSamples,
			Gamma:             cfg.Gamma,
			Integrator:        string(cfg.Integrator),
			Workers:           cfg.NumWorkers,
			Photon:            photonJSON(cfg.Photon),
			Cache:             cacheJSON(cfg.Cache),
		},
	}
}

// LoadScene reads a JSON scene description. Texture and mesh paths are
// relative to the scene file.
func LoadScene(filename string) (*scene.Scene, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}
	s, err := ParseScene(data, filepath.Dir(filename))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}

// ParseScene builds a scene from a JSON document. baseDir resolves relative file references.
func ParseScene(data []byte, baseDir string) (*scene.Scene, error) {
	doc := defaultSceneJSON()
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}

	b := &sceneBuilder{
		scene:     scene.NewScene(),
		baseDir:   baseDir,
		textures:  make(map[string]material.Texture),
		materials: make(map[string]int),
		meshes:    make(map[string]int),
	}
	if err := b.build(&doc); err != nil {
		return nil, err
	}

	s := b.scene
	logger.Infof("loaded scene: %d nodes, %d objects, %d materials, %d lights",
		len(s.Nodes), len(s.Objects), len(s.Materials), len(s.Lights))
	return s, nil
}

type sceneBuilder struct {
	scene     *scene.Scene
	baseDir   string
	textures  map[string]material.Texture
	materials map[string]int
	meshes    map[string]int // Object index by resolved mesh path
	sphere    int
	plane     int
}

func (b *sceneBuilder) build(doc *sceneJSON) error {
	s := b.scene
	c := doc.Camera
	s.CameraConfig = geometry.CameraConfig{
		Position:      c.Position.toVec3(),
		Direction:     c.Direction.toVec3(),
		Up:            c.Up.toVec3(),
		FOV:           c.FOV,
		FocalDistance: c.FocalDistance,
		DOF:           c.DOF,
		Width:         c.Width,
		Height:        c.Height,
	}

	r := doc.Render
	integrator, err := scene.ParseIntegrator(r.Integrator)
	if err != nil {
		return err
	}
	s.SamplingConfig = scene.SamplingConfig{
		MinSamples:        r.MinSamples,
		MaxSamples:        r.MaxSamples,
		VarianceThreshold: r.VarianceThreshold,
		MaxBounces:        r.MaxBounces,
		IndirectDepth:     r.IndirectDepth,
		IndirectSamples:   r.IndirectSamples,
		Gamma:             r.Gamma,
		Integrator:        integrator,
		NumWorkers:        r.Workers,
		Photon:            scene.PhotonConfig(r.Photon),
		Cache:             scene.CacheConfig(r.Cache),
	}

	if err := b.loadTextures(doc.Textures); err != nil {
		return err
	}
	if doc.Background != nil {
		if s.Background, err = b.color(*doc.Background); err != nil {
			return fmt.Errorf("background: %w", err)
		}
	}
	if doc.Environment != nil {
		if s.Environment, err = b.color(*doc.Environment); err != nil {
			return fmt.Errorf("environment: %w", err)
		}
	}
	if err := b.loadMaterials(doc.Materials); err != nil {
		return err
	}
	for i, l := range doc.Lights {
		light, err := newLight(l)
		if err != nil {
			return fmt.Errorf("light %d: %w", i, err)
		}
		s.AddLight(light)
	}

	b.sphere, b.plane = scene.None, scene.None
	for _, n := range doc.Nodes {
		if err := b.addNode(s.Root(), n); err != nil {
			return err
		}
	}
	return nil
}

func (b *sceneBuilder) path(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(b.baseDir, file)
}

func (b *sceneBuilder) loadTextures(textures map[string]textureJSON) error {
	for name, t := range textures {
		switch t.Type {
		case "image":
			texture, err := LoadImageTexture(b.path(t.File))
			if err != nil {
				return fmt.Errorf("texture %q: %w", name, err)
			}
			b.textures[name] = texture
		case "checker":
			b.textures[name] = material.NewChecker(t.Color1.toVec3(), t.Color2.toVec3(), t.Checks)
		default:
			return fmt.Errorf("%w: texture %q has type %q", ErrUnknownTexture, name, t.Type)
		}
	}
	return nil
}

func (b *sceneBuilder) color(c colorJSON) (material.TexturedColor, error) {
	if c.Texture == "" {
		return material.NewColor(c.Color.toVec3()), nil
	}
	texture, ok := b.textures[c.Texture]
	if !ok {
		return material.TexturedColor{}, fmt.Errorf("%w: %q", ErrUnknownTexture, c.Texture)
	}
	tc := material.NewTexturedColor(c.Color.toVec3(), texture)
	if c.Scale != nil {
		tc.Scale = c.Scale.toVec3()
	}
	tc.Offset = c.Offset.toVec3()
	return tc, nil
}

// loadMaterials registers materials in name order. Multi-materials are
// registered last and may only reference plain materials.
func (b *sceneBuilder) loadMaterials(materials map[string]materialJSON) error {
	names := make([]string, 0, len(materials))
	for name := range materials {
		names = append(names, name)
	}
	sort.Strings(names)

	var multis []string
	for _, name := range names {
		m := materials[name]
		switch m.Type {
		case "", "blinn":
			mtl, err := b.blinn(m)
			if err != nil {
				return fmt.Errorf("material %q: %w", name, err)
			}
			b.materials[name] = b.scene.AddMaterial(mtl)
		case "multi":
			multis = append(multis, name)
		default:
			return fmt.Errorf("%w: material %q has type %q", ErrUnknownMaterial, name, m.Type)
		}
	}

	for _, name := range multis {
		multi := material.NewMulti()
		for _, sub := range materials[name].Materials {
			id, ok := b.materials[sub]
			if !ok {
				return fmt.Errorf("%w: %q in multi-material %q", ErrUnknownMaterial, sub, name)
			}
			multi.Materials = append(multi.Materials, b.scene.Materials[id])
		}
		b.materials[name] = b.scene.AddMaterial(multi)
	}
	return nil
}

func (b *sceneBuilder) blinn(m materialJSON) (*material.Blinn, error) {
	mtl := material.NewBlinn(core.NewVec3(0.5, 0.5, 0.5))
	colors := []struct {
		src *colorJSON
		dst *material.TexturedColor
	}{
		{m.Diffuse, &mtl.Diffuse},
		{m.Specular, &mtl.Specular},
		{m.Reflection, &mtl.Reflection},
		{m.Refraction, &mtl.Refraction},
	}
	for _, c := range colors {
		if c.src == nil {
			continue
		}
		tc, err := b.color(*c.src)
		if err != nil {
			return nil, err
		}
		*c.dst = tc
	}
	mtl.Absorption = m.Absorption.toVec3()
	mtl.Emission = m.Emission.toVec3()
	if m.Glossiness != nil {
		mtl.Glossiness = *m.Glossiness
	}
	if m.IOR != nil {
		mtl.IOR = *m.IOR
	}
	return mtl, nil
}

func newLight(l lightJSON) (lights.Light, error) {
	intensity := l.Intensity.toVec3()
	switch l.Type {
	case "ambient":
		return lights.NewAmbient(intensity), nil
	case "directional":
		return lights.NewDirectional(intensity, l.Direction.toVec3()), nil
	case "point":
		return lights.NewPoint(intensity, l.Position.toVec3(), l.Size), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLight, l.Type)
}

// object returns the index of the object a node refers to, adding it to the scene on first use
func (b *sceneBuilder) object(n nodeJSON) (int, error) {
	s := b.scene
	switch n.Object {
	case "":
		return scene.None, nil
	case "sphere":
		if b.sphere == scene.None {
			b.sphere = s.AddObject(geometry.Sphere{})
		}
		return b.sphere, nil
	case "plane":
		if b.plane == scene.None {
			b.plane = s.AddObject(geometry.Plane{})
		}
		return b.plane, nil
	case "mesh":
		path := b.path(n.Mesh)
		if id, ok := b.meshes[path]; ok {
			return id, nil
		}
		mesh, err := LoadGLTFMesh(path)
		if err != nil {
			return scene.None, err
		}
		b.meshes[path] = s.AddObject(mesh)
		return b.meshes[path], nil
	}
	return scene.None, fmt.Errorf("%w: %q", ErrUnknownObject, n.Object)
}

func (b *sceneBuilder) addNode(parent int, n nodeJSON) error {
	object, err := b.object(n)
	if err != nil {
		return fmt.Errorf("node %q: %w", n.Name, err)
	}

	mtl := scene.None
	if n.Material != "" {
		id, ok := b.materials[n.Material]
		if !ok {
			return fmt.Errorf("node %q: %w: %q", n.Name, ErrUnknownMaterial, n.Material)
		}
		mtl = id
	}

	// Scale, then rotate, then translate
	transform := scene.Identity()
	if n.Scale != nil {
		transform = transform.Scale(n.Scale.toVec3())
	}
	for _, r := range n.Rotation {
		transform = transform.Rotate(r.Axis.toVec3(), r.Degrees)
	}
	transform = transform.Translate(n.Position.toVec3())

	id := b.scene.AddNode(parent, n.Name, transform, object, mtl)
	for _, child := range n.Children {
		if err := b.addNode(id, child); err != nil {
			return err
		}
	}
	return nil
}
