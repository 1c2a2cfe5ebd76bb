// Morphogen field preview tool - interactive diffusion visualization with sliders.
//
// Usage: go run ./cmd/fieldpreview
package main

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/instar-sim/instar/systems"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
)

// FieldParams holds the tunable diffusion parameters.
type FieldParams struct {
	DiffusionRate  float32
	DecayRate      float32
	Baseline       float32
	NoiseScale     float32
	NoiseAmplitude float32
	Gradient       int // 0 none, 1 anterior, 2 posterior
	Seed           int64
}

const (
	gridX = 64
	gridY = 64
	gridZ = 8
)

func main() {
	rl.InitWindow(windowWidth, windowHeight, "Morphogen Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	params := FieldParams{
		DiffusionRate:  0.8,
		DecayRate:      0.05,
		Baseline:       0.5,
		NoiseScale:     3.0,
		NoiseAmplitude: 0.15,
		Gradient:       1,
		Seed:           42,
	}

	img := rl.GenImageColor(gridX, gridY, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	field := buildField(params)
	slice := make([]float64, gridX*gridY)
	pixels := make([]color8, gridX*gridY)

	running := true
	needsRebuild := false

	for !rl.WindowShouldClose() {
		if needsRebuild {
			field = buildField(params)
			needsRebuild = false
		}
		if running {
			field.Diffuse(1.0 / 60.0)
		}

		field.CopySliceZ(0, gridZ/2, slice)
		updateTexture(texture, slice, pixels)

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: gridX, Height: gridY},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("Avg: %.4f  Sum: %.1f", field.AverageConcentration(0), field.Sum(0)), 15, statsY, 16, rl.DarkGray)
		rl.DrawText("SPACE pause  P pulse  R rebuild", 15, statsY+20, 16, rl.DarkGray)

		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Diffusion Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		params.DiffusionRate, needsRebuild = slider(panelX, &panelY,
			"Diffusion rate", params.DiffusionRate, 0, 2.0, needsRebuild)
		params.DecayRate, needsRebuild = slider(panelX, &panelY,
			"Decay rate", params.DecayRate, 0, 0.5, needsRebuild)
		params.Baseline, needsRebuild = slider(panelX, &panelY,
			"Baseline concentration", params.Baseline, 0, 2.0, needsRebuild)
		params.NoiseScale, needsRebuild = slider(panelX, &panelY,
			"Noise scale (frequency)", params.NoiseScale, 0.5, 10.0, needsRebuild)
		params.NoiseAmplitude, needsRebuild = slider(panelX, &panelY,
			"Noise amplitude", params.NoiseAmplitude, 0, 1.0, needsRebuild)

		gradient, gradChanged := gradientSelector(panelX, &panelY, params.Gradient)
		if gradChanged {
			params.Gradient = gradient
			needsRebuild = true
		}

		rl.EndDrawing()

		switch {
		case rl.IsKeyPressed(rl.KeySpace):
			running = !running
		case rl.IsKeyPressed(rl.KeyP):
			field.ActivateIndex(0, 0.5)
		case rl.IsKeyPressed(rl.KeyR):
			needsRebuild = true
		}
	}
}

// slider draws one labeled slider row and advances the panel cursor.
func slider(x float32, y *float32, label string, value, min, max float32, dirty bool) (float32, bool) {
	rl.DrawText(label, int32(x), int32(*y), 14, rl.Gray)
	*y += 18
	next := gui.SliderBar(
		rl.Rectangle{X: x, Y: *y, Width: float32(panelWidth - 80), Height: 20},
		fmt.Sprintf("%.1f", min), fmt.Sprintf("%.1f", max),
		value, min, max,
	)
	rl.DrawText(fmt.Sprintf("%.3f", value), int32(x+float32(panelWidth-70)), int32(*y+2), 16, rl.DarkGray)
	*y += 35
	if next != value {
		return next, true
	}
	return value, dirty
}

// gradientSelector toggles the maternal gradient kind.
func gradientSelector(x float32, y *float32, current int) (int, bool) {
	rl.DrawText("Maternal gradient", int32(x), int32(*y), 14, rl.Gray)
	*y += 18

	labels := []string{"none", "anterior", "posterior"}
	changed := false
	for i, label := range labels {
		bounds := rl.Rectangle{X: x + float32(i)*110, Y: *y, Width: 100, Height: 24}
		active := current == i
		if gui.Toggle(bounds, label, active) && !active {
			current = i
			changed = true
		}
	}
	*y += 40
	return current, changed
}

func buildField(p FieldParams) *systems.MorphogenField {
	gradient := systems.GradientNone
	switch p.Gradient {
	case 1:
		gradient = systems.GradientAnterior
	case 2:
		gradient = systems.GradientPosterior
	}

	field, err := systems.NewMorphogenField(
		[]systems.Morphogen{{
			Name:          "Preview",
			DiffusionRate: float64(p.DiffusionRate),
			DecayRate:     float64(p.DecayRate),
			Baseline:      float64(p.Baseline),
			Gradient:      gradient,
			Active:        true,
		}},
		gridX, gridY, gridZ,
		systems.FieldOptions{
			Seed:           p.Seed,
			NoiseScale:     float64(p.NoiseScale),
			NoiseAmplitude: float64(p.NoiseAmplitude),
		})
	if err != nil {
		panic(err)
	}
	return field
}

type color8 = rl.Color

// updateTexture maps concentrations onto a blue-to-yellow ramp. The slice
// is x-major; the texture wants rows.
func updateTexture(texture rl.Texture2D, slice []float64, pixels []color8) {
	for x := 0; x < gridX; x++ {
		for y := 0; y < gridY; y++ {
			v := slice[x*gridY+y]
			if v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			pixels[y*gridX+x] = rl.NewColor(uint8(40+200*v), uint8(40+180*v), uint8(160-120*v), 255)
		}
	}
	rl.UpdateTexture(texture, pixels)
}
