package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
)

// ExcalidrawElement represents a single element in the Excalidraw scene.
type ExcalidrawElement struct {
	Type            string   `json:"type"`
	Version         int      `json:"version"`
	VersionNonce    int      `json:"versionNonce"`
	IsDeleted       bool     `json:"isDeleted"`
	ID              string   `json:"id"`
	FillStyle       string   `json:"fillStyle"`
	StrokeWidth     int      `json:"strokeWidth"`
	StrokeStyle     string   `json:"strokeStyle"`
	Roughness       int      `json:"roughness"`
	Opacity         int      `json:"opacity"`
	Angle           int      `json:"angle"`
	X               float64  `json:"x"`
	Y               float64  `json:"y"`
	StrokeColor     string   `json:"strokeColor"`
	BackgroundColor string   `json:"backgroundColor"`
	Width           float64  `json:"width"`
	Height          float64  `json:"height"`
	Seed            int      `json:"seed"`
	GroupIds        []string `json:"groupIds"`
	Roundness       any      `json:"roundness"`
	BoundElements   []any    `json:"boundElements"`
	Updated         int64    `json:"updated"`
	Link            any      `json:"link"`
	Locked          bool     `json:"locked"`
	Text            string   `json:"text,omitempty"`
	FontSize        int      `json:"fontSize,omitempty"`
	FontFamily      int      `json:"fontFamily,omitempty"`
	TextAlign       string   `json:"textAlign,omitempty"`
	VerticalAlign   string   `json:"verticalAlign,omitempty"`
}

// ExcalidrawScene represents the full file format.
type ExcalidrawScene struct {
	Type     string              `json:"type"`
	Version  int                 `json:"version"`
	Source   string              `json:"source"`
	Elements []ExcalidrawElement `json:"elements"`
	AppState map[string]any      `json:"appState"`
	Files    map[string]any      `json:"files"`
}

// Layout constants
const (
	buttonHeight = 48.0
	charWidth    = 9.0
	minWidth     = 96.0
	gapX         = 24.0
	errorColor   = "#e03131"
)

// BuildScene lays out the nodes of view left to right. A view blocked by
// violations is drawn as a list of its messages instead.
func BuildScene(view domain.ResolvedView) ExcalidrawScene {
	elements := []ExcalidrawElement{}

	if len(view.Nodes) == 0 {
		lines := append([]string{}, view.Errors...)
		for _, v := range view.Violations {
			lines = append(lines, fmt.Sprintf("%s: %s", v.Code, v.Message))
		}
		if len(lines) == 0 {
			lines = []string{"empty view"}
		}
		elements = append(elements, textElement(view.ViewID+"-diagnostics", 0, 0,
			strings.Join(lines, "\n"), errorColor, 100))
	}

	currentX := 0.0
	for _, n := range view.Nodes {
		width := float64(len(n.Props.Label))*charWidth + 2*padding(n.Styles)
		if width < minWidth {
			width = minWidth
		}
		opacity := 100
		if o, ok := n.Styles["opacity"].(float64); ok {
			opacity = int(o * 100)
		}

		rect := ExcalidrawElement{
			Type:            "rectangle",
			Version:         1,
			ID:              n.ID,
			FillStyle:       "solid",
			StrokeWidth:     1,
			StrokeStyle:     "solid",
			Roughness:       0,
			Opacity:         opacity,
			X:               currentX,
			Y:               0,
			StrokeColor:     strokeColor(n.Styles),
			BackgroundColor: styleString(n.Styles, "backgroundColor", "transparent"),
			Width:           width,
			Height:          buttonHeight,
			Seed:            1,
			GroupIds:        []string{n.ID + "-group"},
			Roundness:       map[string]int{"type": 3},
		}
		elements = append(elements, rect)

		text := textElement(n.ID+"-text", currentX+padding(n.Styles), buttonHeight/4,
			n.Props.Label, styleString(n.Styles, "color", "#000000"), opacity)
		text.GroupIds = []string{n.ID + "-group"}
		text.Width = width - 2*padding(n.Styles)
		elements = append(elements, text)

		currentX += width + gapX
	}

	return ExcalidrawScene{
		Type:     "excalidraw",
		Version:  2,
		Source:   "designspec",
		Elements: elements,
		AppState: map[string]any{"viewBackgroundColor": "#ffffff"},
		Files:    map[string]any{},
	}
}

// Write encodes the scene of view to w.
func Write(w io.Writer, view domain.ResolvedView) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildScene(view))
}

// ExportExcalidraw writes the scene of view to outputPath.
func ExportExcalidraw(view domain.ResolvedView, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()
	return Write(file, view)
}

func textElement(id string, x, y float64, text, color string, opacity int) ExcalidrawElement {
	return ExcalidrawElement{
		Type:            "text",
		Version:         1,
		ID:              id,
		FillStyle:       "solid",
		StrokeWidth:     1,
		StrokeStyle:     "solid",
		Roughness:       0,
		Opacity:         opacity,
		X:               x,
		Y:               y,
		StrokeColor:     color,
		BackgroundColor: "transparent",
		Width:           float64(len(text)) * charWidth,
		Height:          buttonHeight / 2,
		Seed:            1,
		GroupIds:        []string{},
		Text:            text,
		FontSize:        16,
		FontFamily:      1,
		TextAlign:       "left",
		VerticalAlign:   "top",
	}
}

func styleString(styles map[string]any, key, fallback string) string {
	if s, ok := styles[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// strokeColor takes the color out of a "1px solid <color>" border, falling
// back to the background so borderless buttons have no visible outline.
func strokeColor(styles map[string]any) string {
	if b, ok := styles["border"].(string); ok {
		if f := strings.Fields(b); len(f) > 0 {
			return f[len(f)-1]
		}
	}
	bg := styleString(styles, "backgroundColor", "transparent")
	if bg == "transparent" {
		return styleString(styles, "color", "#000000")
	}
	return bg
}

// padding reads a "<n>px" padding, defaulting to 12.
func padding(styles map[string]any) float64 {
	s, _ := styles["padding"].(string)
	var px float64
	if _, err := fmt.Sscanf(s, "%gpx", &px); err != nil {
		return 12
	}
	return px
}
