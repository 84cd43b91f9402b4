package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/geometry"
	"github.com/df07/go-photon-raytracer/pkg/material"
	"github.com/df07/go-photon-raytracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	Node         string                 `json:"node,omitempty"`
	MaterialType string                 `json:"materialType"`
	GeometryType string                 `json:"geometryType"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	Properties   map[string]interface{} `json:"properties"`
}

func vec(v core.Vec3) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

func hexColor(c core.Vec3) string {
	c = c.Clamp(0, 1)
	return fmt.Sprintf("#%02x%02x%02x", int(c.X*255), int(c.Y*255), int(c.Z*255))
}

// extractMaterialInfo extracts detailed material information with type assertions
func (s *Server) extractMaterialInfo(mat material.Material) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch m := mat.(type) {
	case *material.Blinn:
		properties["diffuse"] = vec(m.Diffuse.Color)
		properties["color"] = hexColor(m.Diffuse.Color)
		properties["specular"] = vec(m.Specular.Color)
		properties["glossiness"] = m.Glossiness
		properties["textured"] = m.Diffuse.Texture != nil
		if !m.Reflection.IsZero() {
			properties["reflection"] = vec(m.Reflection.Color)
		}
		if !m.Refraction.IsZero() {
			properties["refraction"] = vec(m.Refraction.Color)
			properties["ior"] = m.IOR
			properties["absorption"] = vec(m.Absorption)
		}
		if !m.Emission.IsZero() {
			properties["emission"] = vec(m.Emission)
		}
		return "blinn", properties

	case *material.Multi:
		subs := make([]map[string]interface{}, len(m.Materials))
		for i, sub := range m.Materials {
			subType, subProps := s.extractMaterialInfo(sub)
			subs[i] = map[string]interface{}{"type": subType, "properties": subProps}
		}
		properties["materials"] = subs
		return "multi", properties

	case nil:
		return "none", properties
	}
	return "unknown", properties
}

// extractGeometryInfo describes the object a node carries
func (s *Server) extractGeometryInfo(obj geometry.Object) (string, map[string]interface{}) {
	properties := make(map[string]interface{})
	switch o := obj.(type) {
	case geometry.Sphere, *geometry.Sphere:
		return "sphere", properties
	case geometry.Plane, *geometry.Plane:
		return "plane", properties
	case *geometry.TriangleMesh:
		properties["faces"] = o.FaceCount()
		properties["vertices"] = o.VertexCount()
		return "mesh", properties
	}
	return "unknown", properties
}

// inspectPixel traces the camera ray through the center of a pixel
func inspectPixel(sceneObj *scene.Scene, pixelX, pixelY int) (geometry.HitInfo, error) {
	hit := geometry.NewHitInfo()
	if err := sceneObj.Preprocess(); err != nil {
		return hit, err
	}
	ray := sceneObj.Camera().GetRay(float64(pixelX)+0.5, float64(pixelY)+0.5, core.Vec2{})
	sceneObj.Trace(ray, &hit, geometry.HitFront)
	return hit, nil
}

// handleInspect reports what the camera sees through one pixel
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	fail := func(status int, err error) {
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
	}

	query := r.URL.Query()
	sceneName := query.Get("scene")
	if sceneName == "" {
		sceneName = "default"
	}
	sceneObj, err := s.createScene(sceneName)
	if err != nil {
		fail(http.StatusBadRequest, err)
		return
	}
	req := RenderRequest{}
	if req.Width, err = parseIntParam(query, "width", 0, 8, 2000); err != nil {
		fail(http.StatusBadRequest, err)
		return
	}
	if req.Height, err = parseIntParam(query, "height", 0, 8, 2000); err != nil {
		fail(http.StatusBadRequest, err)
		return
	}
	req.apply(sceneObj)

	cam := sceneObj.CameraConfig
	x, errX := strconv.Atoi(query.Get("x"))
	y, errY := strconv.Atoi(query.Get("y"))
	if errX != nil || errY != nil || x < 0 || y < 0 || x >= cam.Width || y >= cam.Height {
		fail(http.StatusBadRequest, fmt.Errorf("pixel must be inside %dx%d", cam.Width, cam.Height))
		return
	}

	hit, err := inspectPixel(sceneObj, x, y)
	if err != nil {
		fail(http.StatusBadRequest, err)
		return
	}

	response := InspectResponse{Properties: make(map[string]interface{})}
	if hit.HasHit() {
		node := sceneObj.Node(hit.Node)
		materialType, materialProps := s.extractMaterialInfo(sceneObj.MaterialOf(hit.Node))
		geometryType, geometryProps := s.extractGeometryInfo(sceneObj.Objects[node.Object])
		response = InspectResponse{
			Hit:          true,
			Node:         node.Name,
			MaterialType: materialType,
			GeometryType: geometryType,
			Point:        vec(hit.P),
			Normal:       vec(hit.N),
			Distance:     hit.Z,
			FrontFace:    hit.Front,
			Properties:   map[string]interface{}{"material": materialProps, "geometry": geometryProps, "subMaterial": hit.MtlID},
		}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
