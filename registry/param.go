package registry

import (
	"fmt"

	"github.com/fatih/structs"
	"github.com/mitchellh/mapstructure"
)

// roleTag is the struct tag key a processor's parameter struct uses to
// declare each field's role, e.g. `role:"annotation-input" default:"<token>"`.
// This mirrors the teacher's reflection-based config introspection
// (components/base/base.go's nodeUtils) generalized from component
// configuration structs to processor parameter structs.
const roleTag = "role"

// ParamsFromStruct introspects a processor's parameter struct via
// fatih/structs and returns one Param per exported field, with the role
// taken from its role tag. Fields without a role tag are treated as scalars
// (spec §4.B point 2).
func ParamsFromStruct(v interface{}) []Param {
	s := structs.New(v)
	fields := s.Fields()
	params := make([]Param, 0, len(fields))
	for _, f := range fields {
		if !f.IsExported() {
			continue
		}
		role := Role(f.Tag(roleTag))
		if role == "" {
			role = RoleScalar
		}
		def := ""
		if dv := f.Tag("default"); dv != "" {
			def = dv
		}
		params = append(params, Param{
			Name:    f.Name(),
			Role:    role,
			Default: def,
			Type:    fmt.Sprintf("%T", f.Value()),
		})
	}
	return params
}

// BindConfig decodes a resolved configuration subtree into a processor's
// config struct or map, grounded on the teacher's maps.Map2Struct convention
// (referenced from types/component.go's Init docs). raw is accepted as
// interface{} rather than map[string]interface{} because a subtree read
// back from pathconf.Config.Get is boxed as that package's unexported
// named map type; mapstructure's decoder works over any map-kind source by
// reflection, so it reads straight through that boxing without needing a
// manual conversion pass.
func BindConfig(raw interface{}, target interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "config",
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
