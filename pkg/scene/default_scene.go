package scene

import (
	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/geometry"
	"github.com/df07/go-photon-raytracer/pkg/lights"
	"github.com/df07/go-photon-raytracer/pkg/material"
)

// NewDefaultScene creates a default scene with three spheres over a checkered ground
func NewDefaultScene() *Scene {
	s := NewScene()
	s.CameraConfig = geometry.CameraConfig{
		Position:      core.NewVec3(0, 1.5, 6),
		Direction:     core.NewVec3(0, -0.25, -1),
		Up:            core.NewVec3(0, 1, 0),
		FOV:           40,
		FocalDistance: 6,
		DOF:           0,
		Width:         400,
		Height:        300,
	}
	s.Background = material.NewColor(core.NewVec3(0.1, 0.1, 0.15))
	s.Environment = material.NewColor(core.NewVec3(0.5, 0.6, 0.8))

	// Create materials
	ground := &material.Blinn{
		Diffuse:    material.NewTexturedColor(core.NewVec3(0.8, 0.8, 0.8), material.NewChecker(core.NewVec3(1, 1, 1), core.NewVec3(0.2, 0.2, 0.2), 20)),
		Specular:   material.NewColor(core.NewVec3(0.1, 0.1, 0.1)),
		Glossiness: 10,
		IOR:        1,
	}
	glass := &material.Blinn{
		Diffuse:    material.NewColor(core.Vec3{}),
		Specular:   material.NewColor(core.NewVec3(0.8, 0.8, 0.8)),
		Refraction: material.NewColor(core.NewVec3(1, 1, 1)),
		Absorption: core.NewVec3(0.05, 0.5, 0.5),
		Glossiness: 100,
		IOR:        1.5,
	}
	mirror := &material.Blinn{
		Diffuse:    material.NewColor(core.NewVec3(0.05, 0.05, 0.05)),
		Specular:   material.NewColor(core.NewVec3(0.9, 0.9, 0.9)),
		Reflection: material.NewColor(core.NewVec3(0.8, 0.8, 0.8)),
		Glossiness: 200,
		IOR:        1,
	}
	diffuse := material.NewBlinn(core.NewVec3(0.2, 0.4, 0.8))

	groundMtl := s.AddMaterial(ground)
	glassMtl := s.AddMaterial(glass)
	mirrorMtl := s.AddMaterial(mirror)
	diffuseMtl := s.AddMaterial(diffuse)

	sphere := s.AddObject(geometry.Sphere{})
	plane := s.AddObject(geometry.Plane{})

	// The plane faces +Z locally; tip it over so it faces up
	groundTransform := Identity().Rotate(core.NewVec3(1, 0, 0), -90).Scale(core.NewVec3(10, 1, 10))
	s.AddNode(s.Root(), "ground", groundTransform, plane, groundMtl)

	spheres := s.AddNode(s.Root(), "spheres", Identity().Translate(core.NewVec3(0, 1, 0)), None, None)
	s.AddNode(spheres, "glass", Identity().Translate(core.NewVec3(0, 0, 0)), sphere, glassMtl)
	s.AddNode(spheres, "mirror", Identity().Translate(core.NewVec3(-2.2, 0, -1)), sphere, mirrorMtl)
	s.AddNode(spheres, "diffuse", Identity().Scale(core.NewVec3(0.7, 0.7, 0.7)).Translate(core.NewVec3(2, -0.3, 0.5)), sphere, diffuseMtl)

	s.AddLight(lights.NewAmbient(core.NewVec3(0.1, 0.1, 0.1)))
	s.AddLight(lights.NewPoint(core.NewVec3(0.7, 0.7, 0.7), core.NewVec3(-3, 6, 4), 0.5))
	s.AddLight(lights.NewDirectional(core.NewVec3(0.3, 0.3, 0.3), core.NewVec3(1, -1, -0.5)))

	return s
}
