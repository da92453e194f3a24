package gameconfig

import (
	"fmt"
	"io"
	"log"

	"github.com/crystal-mush/empireolc/pkg/libfile"
	"gopkg.in/yaml.v3"
)

// yamlDoc is the YAML layout: group name -> key -> value. Bitvectors are
// stored in their alpha form so flags survive renaming.
type yamlDoc map[string]map[string]yaml.Node

// ExportYAML writes every entry grouped by config group.
func (c *Config) ExportYAML(w io.Writer) error {
	doc := make(map[string]map[string]interface{})
	for _, e := range c.Entries() {
		group := e.Group.String()
		if doc[group] == nil {
			doc[group] = make(map[string]interface{})
		}
		doc[group][e.Key] = e.yamlValue()
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding config YAML: %w", err)
	}
	return enc.Close()
}

func (e Entry) yamlValue() interface{} {
	switch e.Type {
	case TypeBitvector:
		return libfile.FlagsToAlpha(e.Value.Bitvector)
	case TypeBool:
		return e.Value.Bool
	case TypeDouble:
		return e.Value.Double
	case TypeInt:
		return e.Value.Int
	case TypeIntArray:
		if e.Value.IntArray == nil {
			return []int{}
		}
		return e.Value.IntArray
	default:
		return e.Value.String
	}
}

// ImportYAML reads a document written by ExportYAML. Keys are matched
// by name alone; the group heading is only for people.
func (c *Config) ImportYAML(r io.Reader) error {
	var doc yamlDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return fmt.Errorf("parsing config YAML: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, keys := range doc {
		for key, node := range keys {
			e, ok := c.entries[key]
			if !ok {
				log.Printf("gameconfig: unknown config key: %s", key)
				continue
			}
			if err := e.decodeYAML(&node); err != nil {
				log.Printf("gameconfig: %s: %v", key, err)
			}
		}
	}
	return nil
}

func (e *Entry) decodeYAML(node *yaml.Node) error {
	switch e.Type {
	case TypeBitvector:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		e.Value.Bitvector = libfile.AlphaToFlags(s)
	case TypeBool:
		return node.Decode(&e.Value.Bool)
	case TypeDouble:
		return node.Decode(&e.Value.Double)
	case TypeInt:
		return node.Decode(&e.Value.Int)
	case TypeIntArray:
		var arr []int
		if err := node.Decode(&arr); err != nil {
			return err
		}
		e.Value.IntArray = arr
	default:
		return node.Decode(&e.Value.String)
	}
	return nil
}
