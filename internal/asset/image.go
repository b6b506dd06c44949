package asset

import (
	"fmt"

	"github.com/agentic-research/dson/internal/address"
)

// ImageMap is one layer of an image: a reference to the texture file
// plus compositing parameters.
type ImageMap struct {
	URL      string
	Label    string
	Color    string
	Invert   bool
	Rotation float64
	XMirror  bool
	YMirror  bool
	XScale   float64
	YScale   float64
	XOffset  float64
	YOffset  float64
}

// Image is a validated image definition: a layered texture referenced by
// material channels.
type Image struct {
	Header

	MapGamma float64
	MapSize  [2]int
	Maps     []ImageMap
}

func (*Image) Kind() Kind { return KindImage }

// BuildImage validates a raw image_library entry into an immutable
// Image.
func BuildImage(lib map[string]any, inst map[string]any, src address.AssetURL) (*Image, error) {
	h, err := header(KindImage, lib, inst)
	if err != nil {
		return nil, err
	}
	if h.Name == "" {
		return nil, fmt.Errorf("%w: %s %q", ErrMissingField, KindImage, "name")
	}

	img := &Image{Header: h}
	img.URL = src
	img.MapGamma = optFloat(lib, inst, "map_gamma", 0)

	if size, ok := optList(lib, inst, "map_size"); ok {
		if len(size) != 2 {
			return nil, fmt.Errorf("%w: map_size must hold two values", ErrBadValue)
		}
		w, okW := toInt(size[0])
		ht, okH := toInt(size[1])
		if !okW || !okH {
			return nil, fmt.Errorf("%w: map_size must hold two integers", ErrBadValue)
		}
		img.MapSize = [2]int{w, ht}
	}

	layers, _ := optList(lib, inst, "map")
	for i, raw := range layers {
		data, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: image map %d is not an object", ErrBadValue, i)
		}
		layer := ImageMap{XScale: 1, YScale: 1}
		layer.URL, _ = data["url"].(string)
		layer.Label, _ = data["label"].(string)
		layer.Color, _ = data["color"].(string)
		layer.Invert, _ = data["invert"].(bool)
		layer.XMirror, _ = data["xmirror"].(bool)
		layer.YMirror, _ = data["ymirror"].(bool)
		if f, ok := toFloat(data["rotation"]); ok {
			layer.Rotation = f
		}
		if f, ok := toFloat(data["xscale"]); ok {
			layer.XScale = f
		}
		if f, ok := toFloat(data["yscale"]); ok {
			layer.YScale = f
		}
		if f, ok := toFloat(data["xoffset"]); ok {
			layer.XOffset = f
		}
		if f, ok := toFloat(data["yoffset"]); ok {
			layer.YOffset = f
		}
		img.Maps = append(img.Maps, layer)
	}

	return img, nil
}
