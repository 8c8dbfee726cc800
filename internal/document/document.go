// Package document reads and writes actor and scene JSON documents.
//
// Images are stored as base64 PNG strings. Scenes are written with a cast
// of actors referenced by index; documents that embed a full actor copy in
// every scene actor, and a full scene actor copy in every linked camera
// move, are still read.
package document

import (
	"bytes"
	"embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/image/draw"

	"github.com/ivlev/sprite2video/internal/model"
)

var (
	ErrInvalidDocument = errors.New("invalid document")
	ErrBadImage        = errors.New("bad image data")
)

type Kind string

const (
	KindActor Kind = "actor"
	KindScene Kind = "scene"
)

//go:embed schema/*.json
var schemaFS embed.FS

var schemas = map[Kind]*gojsonschema.Schema{}

func init() {
	for _, k := range []Kind{KindActor, KindScene} {
		data, err := schemaFS.ReadFile("schema/" + string(k) + ".schema.json")
		if err != nil {
			panic(err)
		}
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			panic(fmt.Sprintf("%s schema: %v", k, err))
		}
		schemas[k] = s
	}
}

// Validate checks data against the schema of kind.
func Validate(kind Kind, data []byte) error {
	s, ok := schemas[kind]
	if !ok {
		return fmt.Errorf("unknown document kind %q: %w", kind, ErrInvalidDocument)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%s document: %v: %w", kind, err, ErrInvalidDocument)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%s document: %s: %w", kind, strings.Join(msgs, "; "), ErrInvalidDocument)
	}
	return nil
}

// DetectKind tells scenes from actors by their top-level keys.
func DetectKind(data []byte) (Kind, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return "", fmt.Errorf("%v: %w", err, ErrInvalidDocument)
	}
	for _, key := range []string{"camera", "actors", "background", "cast"} {
		if _, ok := top[key]; ok {
			return KindScene, nil
		}
	}
	if _, ok := top["name"]; ok {
		return KindActor, nil
	}
	return "", fmt.Errorf("neither actor nor scene: %w", ErrInvalidDocument)
}

// Fingerprint hashes the canonical form of a JSON value, so that documents
// differing only in key order or whitespace hash the same.
func Fingerprint(data []byte) (uint64, error) {
	canon, err := canonical(data)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(canon), nil
}

func canonical(data []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidDocument)
	}
	return json.Marshal(v)
}

func LoadActor(path string) (model.Actor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Actor{}, err
	}
	a, err := UnmarshalActor(data)
	if err != nil {
		return model.Actor{}, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

func SaveActor(path string, a model.Actor) error {
	data, err := MarshalActor(a)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func LoadScene(path string) (*model.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := UnmarshalScene(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func SaveScene(path string, s *model.Scene) error {
	data, err := MarshalScene(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// FileName is the default file name for a document called name.
func FileName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "_")) + ".json"
}

func encodeImage(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// decodeImage decodes a base64 PNG and normalizes it to NRGBA.
func decodeImage(s string) (*image.NRGBA, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrBadImage)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrBadImage)
	}
	if n, ok := img.(*image.NRGBA); ok {
		return n, nil
	}
	b := img.Bounds()
	n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(n, n.Bounds(), img, b.Min, draw.Src)
	return n, nil
}
