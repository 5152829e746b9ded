// Package plugins defines the Transformer interface: middleware that
// adjusts a statement's builders before it is rendered.
package plugins

import "github.com/bawdo/sqlmaker/managers"

// Transformer is the interface that statement transformation plugins
// implement. Plugins embed BaseTransformer and override only the methods
// they need.
//
// TransformSelect receives the select builder itself. TransformUpdate and
// TransformDelete receive the target table and a clone of the WHERE
// condition that will be rendered.
type Transformer interface {
	TransformSelect(stmt *managers.SelectManager) error
	TransformUpdate(table string, where *managers.Condition) error
	TransformDelete(table string, where *managers.Condition) error
}

// BaseTransformer provides no-op defaults for all Transformer methods.
type BaseTransformer struct{}

func (BaseTransformer) TransformSelect(*managers.SelectManager) error     { return nil }
func (BaseTransformer) TransformUpdate(string, *managers.Condition) error { return nil }
func (BaseTransformer) TransformDelete(string, *managers.Condition) error { return nil }

// ApplySelect runs every transformer's TransformSelect in order, stopping at
// the first error.
func ApplySelect(stmt *managers.SelectManager, ts ...Transformer) error {
	for _, t := range ts {
		if err := t.TransformSelect(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ApplyUpdate runs every transformer's TransformUpdate in order.
func ApplyUpdate(table string, where *managers.Condition, ts ...Transformer) error {
	for _, t := range ts {
		if err := t.TransformUpdate(table, where); err != nil {
			return err
		}
	}
	return nil
}

// ApplyDelete runs every transformer's TransformDelete in order.
func ApplyDelete(table string, where *managers.Condition, ts ...Transformer) error {
	for _, t := range ts {
		if err := t.TransformDelete(table, where); err != nil {
			return err
		}
	}
	return nil
}
