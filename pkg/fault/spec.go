package fault

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrEmptySpec is returned when decoding an empty document
var ErrEmptySpec = errors.New("fault spec is empty")

// DecodeSpec decodes a YAML or JSON fault spec. The kind field selects the type of spec.
// Unknown fields are rejected.
func DecodeSpec(data []byte) (Spec, error) {
	header := struct {
		Kind Kind `yaml:"kind"`
	}{}

	if err := yaml.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("decoding fault spec: %w", err)
	}

	switch header.Kind {
	case KindNetworkPartition:
		return decodeStrict[NetworkPartitionSpec](data)
	case KindProcessStop:
		return decodeStrict[ProcessStopSpec](data)
	case KindNoOp:
		return decodeStrict[NoOpSpec](data)
	case "":
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, ErrEmptySpec
		}
		return nil, errors.New("fault spec does not define a kind")
	default:
		return nil, fmt.Errorf("unknown fault kind %q", header.Kind)
	}
}

// LoadSpec reads a fault spec from a file
func LoadSpec(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fault spec: %w", err)
	}

	return DecodeSpec(data)
}

func decodeStrict[T Spec](data []byte) (Spec, error) {
	doc := struct {
		Kind Kind `yaml:"kind"`
		Spec T    `yaml:",inline"`
	}{}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding %s fault spec: %w", doc.Spec.Kind(), err)
	}

	return doc.Spec, nil
}
