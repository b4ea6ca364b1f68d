package simulation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

//go:embed config.schema.json
var configSchemaSource string

var (
	embeddedSchemaOnce sync.Once
	embeddedSchema     *jsonschema.Schema
	embeddedSchemaErr  error
)

// Config is the JSON document describing one simulation run.
type Config struct {
	// Population and flocking weights
	Number     int     `json:"number"`
	Separation float64 `json:"separation"`
	Alignment  float64 `json:"alignment"`
	Cohesion   float64 `json:"cohesion"`

	// Perception
	Distance           float64 `json:"distance"`           // neighbourhood radius
	SeparationDistance float64 `json:"separationDistance"` // personal space and predator alarm radius
	ViewAngle          float64 `json:"viewAngle"`          // half-angle of the view cone, radians

	WithPredator bool `json:"withPredator"`

	// World dimensions
	CanvasWidth  float64 `json:"canvasWidth"`
	CanvasHeight float64 `json:"canvasHeight"`

	// Engine
	Seed       uint64 `json:"seed"` // 0 picks a random seed
	UpdateMode string `json:"updateMode"`
	Workers    int    `json:"workers"`

	// Tick rate of the window and terminal renderers. Headless runs unpaced.
	TicksPerSecond float64 `json:"ticksPerSecond"`
}

func DefaultConfig() *Config {
	return &Config{
		Number:             150,
		Separation:         0.05,
		Alignment:          0.05,
		Cohesion:           0.005,
		Distance:           75,
		SeparationDistance: 20,
		ViewAngle:          2.5,
		WithPredator:       true,
		CanvasWidth:        1000,
		CanvasHeight:       700,
		UpdateMode:         flock.UpdateInPlace.String(),
		TicksPerSecond:     60,
	}
}

// FlockOptions maps the config onto the engine options.
func (c *Config) FlockOptions() (flock.Options, error) {
	mode, err := flock.ParseUpdateMode(c.UpdateMode)
	if err != nil {
		return flock.Options{}, err
	}
	opts := flock.Options{
		Number:             c.Number,
		Separation:         c.Separation,
		Alignment:          c.Alignment,
		Cohesion:           c.Cohesion,
		Distance:           c.Distance,
		SeparationDistance: c.SeparationDistance,
		WithPredator:       c.WithPredator,
		ViewAngle:          c.ViewAngle,
		CanvasWidth:        c.CanvasWidth,
		CanvasHeight:       c.CanvasHeight,
		Mode:               mode,
		Workers:            c.Workers,
	}
	return opts, opts.Validate()
}

// NewFlock builds a flock from the config, seeding the random source from Seed.
func (c *Config) NewFlock() (*flock.Flock, error) {
	opts, err := c.FlockOptions()
	if err != nil {
		return nil, err
	}
	return flock.New(opts, flock.NewRandomSource(c.Seed))
}

// LoadConfig loads configuration from a JSON file and validates it against
// schemaFile, or against the embedded schema when schemaFile is empty.
// Keys missing from the file keep their DefaultConfig value.
func LoadConfig(configFile string, schemaFile string) (*Config, error) {
	// 1. Schema
	sch, err := compileSchema(schemaFile)
	if err != nil {
		return nil, err
	}

	// 2. Read config file
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	// 3. Validate and decode
	return parseConfig(b, sch)
}

// ParseConfig validates a JSON document against the embedded schema and
// decodes it over DefaultConfig.
func ParseConfig(data []byte) (*Config, error) {
	sch, err := compileSchema("")
	if err != nil {
		return nil, err
	}
	return parseConfig(data, sch)
}

func parseConfig(data []byte, sch *jsonschema.Schema) (*Config, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}

	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if _, err := cfg.FlockOptions(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func compileSchema(schemaFile string) (*jsonschema.Schema, error) {
	if schemaFile != "" {
		sch, err := jsonschema.Compile(schemaFile)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema: %w", err)
		}
		return sch, nil
	}

	embeddedSchemaOnce.Do(func() {
		embeddedSchema, embeddedSchemaErr = jsonschema.CompileString("config.schema.json", configSchemaSource)
	})
	if embeddedSchemaErr != nil {
		return nil, fmt.Errorf("failed to compile embedded schema: %w", embeddedSchemaErr)
	}
	return embeddedSchema, nil
}

// ToProto wraps the config in a structpb.Struct so it can travel as an actor message.
func (c *Config) ToProto() (*structpb.Struct, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("failed to convert config to proto: %w", err)
	}
	return s, nil
}

// ConfigFromProto decodes and validates a config carried by a structpb.Struct.
func ConfigFromProto(s *structpb.Struct) (*Config, error) {
	b, err := protojson.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to convert proto to config: %w", err)
	}
	return ParseConfig(b)
}
