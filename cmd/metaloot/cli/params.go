// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// FlagBinder is implemented by types that bind their own flags manually.
// When a struct field's type implements FlagBinder, [BindFlags] calls
// AddFlags instead of reflecting struct tags.
type FlagBinder interface {
	AddFlags(flagSet *pflag.FlagSet)
}

// FlagsFromParams creates a [pflag.FlagSet] with flags bound to the tagged
// fields of params. params must be a pointer to a struct. Panics on
// invalid input (programming error, not runtime data).
//
//	var params mintToParams
//	command := &cli.Command{
//	    Flags: func() *pflag.FlagSet {
//	        return cli.FlagsFromParams("mint-to", &params)
//	    },
//	    Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
//	        // params fields are populated after flag parsing
//	    },
//	}
func FlagsFromParams(name string, params any) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	if err := BindFlags(params, flagSet); err != nil {
		panic(fmt.Sprintf("cli.FlagsFromParams(%q): %v", name, err))
	}
	return flagSet
}

// BindFlags registers pflag entries for each tagged field in params.
// params must be a pointer to a struct.
//
// # Struct tags
//
//   - flag:"name" or flag:"name,n" names the long flag and an optional
//     one-letter shorthand. Untagged fields are ignored.
//   - desc:"help text" is the usage line shown by --help.
//   - default:"value" is parsed with the field's own type. Without it the
//     flag defaults to the zero value.
//
// # Supported field types
//
// string, bool, int, uint64, []string, and any type whose pointer
// implements [pflag.Value]. A pflag.Value default is applied through Set.
//
// # Nested structs
//
// A struct field whose pointer implements [FlagBinder] registers its own
// flags through AddFlags, whether embedded or named. Embedded structs that
// do not are walked field by field, so shared option groups like
// [JSONOutput] can be mixed into any params type.
func BindFlags(params any, flagSet *pflag.FlagSet) error {
	value := reflect.ValueOf(params)
	if value.Kind() != reflect.Ptr || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("params must be a pointer to a struct, got %T", params)
	}
	return bindStructFields(value.Elem(), flagSet)
}

// flagSpec is the parsed form of one field's tags.
type flagSpec struct {
	name         string
	shorthand    string
	description  string
	defaultValue string
}

func specFromField(field reflect.StructField) (flagSpec, bool) {
	tag, ok := field.Tag.Lookup("flag")
	if !ok || tag == "" {
		return flagSpec{}, false
	}
	name, shorthand, _ := strings.Cut(tag, ",")
	return flagSpec{
		name:         name,
		shorthand:    shorthand,
		description:  field.Tag.Get("desc"),
		defaultValue: field.Tag.Get("default"),
	}, true
}

func bindStructFields(structValue reflect.Value, flagSet *pflag.FlagSet) error {
	structType := structValue.Type()

	for i := range structType.NumField() {
		field := structType.Field(i)
		fieldValue := structValue.Field(i)
		isStruct := field.Type.Kind() == reflect.Struct

		// Interface() panics on unexported fields, so only exported ones
		// can be asked whether they bind themselves.
		if isStruct && field.IsExported() && fieldValue.CanAddr() {
			if binder, ok := fieldValue.Addr().Interface().(FlagBinder); ok {
				binder.AddFlags(flagSet)
				continue
			}
		}

		if isStruct && field.Anonymous {
			if err := bindStructFields(fieldValue, flagSet); err != nil {
				return fmt.Errorf("embedded %s: %w", field.Name, err)
			}
			continue
		}

		spec, ok := specFromField(field)
		if !ok {
			continue
		}
		if !fieldValue.CanAddr() || !field.IsExported() {
			return fmt.Errorf("field %s: flag target must be exported and addressable", field.Name)
		}
		if err := spec.bind(fieldValue.Addr().Interface(), flagSet); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}

	return nil
}

// bind registers target under the spec's names. target is a pointer to
// the struct field.
func (spec flagSpec) bind(target any, flagSet *pflag.FlagSet) error {
	var err error
	switch target := target.(type) {
	case pflag.Value:
		if spec.defaultValue != "" {
			err = target.Set(spec.defaultValue)
		}
		if err == nil {
			flagSet.VarP(target, spec.name, spec.shorthand, spec.description)
		}
	case *string:
		flagSet.StringVarP(target, spec.name, spec.shorthand, spec.defaultValue, spec.description)
	case *bool:
		var value bool
		if value, err = parseDefault(spec.defaultValue, strconv.ParseBool); err == nil {
			flagSet.BoolVarP(target, spec.name, spec.shorthand, value, spec.description)
		}
	case *int:
		var value int
		if value, err = parseDefault(spec.defaultValue, strconv.Atoi); err == nil {
			flagSet.IntVarP(target, spec.name, spec.shorthand, value, spec.description)
		}
	case *uint64:
		var value uint64
		parseUint := func(s string) (uint64, error) { return strconv.ParseUint(s, 10, 64) }
		if value, err = parseDefault(spec.defaultValue, parseUint); err == nil {
			flagSet.Uint64VarP(target, spec.name, spec.shorthand, value, spec.description)
		}
	case *[]string:
		var value []string
		if spec.defaultValue != "" {
			value = strings.Split(spec.defaultValue, ",")
		}
		flagSet.StringSliceVarP(target, spec.name, spec.shorthand, value, spec.description)
	default:
		return fmt.Errorf("unsupported type %T for flag --%s", target, spec.name)
	}
	if err != nil {
		return fmt.Errorf("default for --%s: %w", spec.name, err)
	}
	return nil
}

// parseDefault returns the zero value for an empty default and parse's
// result otherwise.
func parseDefault[T any](text string, parse func(string) (T, error)) (T, error) {
	if text == "" {
		var zero T
		return zero, nil
	}
	return parse(text)
}
