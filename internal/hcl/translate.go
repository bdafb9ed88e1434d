// This file contains the logic for translating HCL schema structs into the
// format-agnostic configuration model defined in the config package.

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/launchgridgo/internal/config"
	"github.com/vk/launchgridgo/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// translateInputDefinition is a helper that processes a single HCL input
// block, handling its default value and type parsing.
func translateInputDefinition(ctx context.Context, in *schema.InputDefinition, ownerKind, ownerName string) (*config.InputDefinition, error) {
	var defaultVal *cty.Value
	var isOptional bool

	if in.Default != nil {
		val := *in.Default
		if !val.IsNull() {
			defaultVal = &val
			isOptional = true
		}
	}

	parsedType, err := typeExprToCtyType(ctx, in.Type)
	if err != nil {
		return nil, fmt.Errorf("in %s '%s', input '%s': %w", ownerKind, ownerName, in.Name, err)
	}

	return &config.InputDefinition{
		Name:        in.Name,
		Type:        parsedType,
		Description: in.Description,
		Default:     defaultVal,
		Optional:    isOptional,
	}, nil
}

// translateJob converts the HCL-specific job schema into the agnostic model.
func (l *Loader) translateJob(j *schema.Job) (*config.Job, error) {
	count := 1
	if j.Count != nil {
		count = *j.Count
		if count < 0 {
			return nil, fmt.Errorf("job '%s.%s': count cannot be negative, got %d", j.LauncherType, j.Name, count)
		}
	}
	return &config.Job{
		LauncherType: j.LauncherType,
		Name:         j.Name,
		Count:        count,
		Arguments:    l.extractBodyAttributes(j.Arguments),
		Uses:         l.extractBodyAttributes(j.Uses),
		DependsOn:    j.DependsOn,
	}, nil
}

// translateResource converts the HCL-specific resource schema into the agnostic model.
func (l *Loader) translateResource(r *schema.Resource) *config.Resource {
	return &config.Resource{
		AssetType: r.AssetType,
		Name:      r.Name,
		Arguments: l.extractBodyAttributes(r.Arguments),
		DependsOn: r.DependsOn,
	}
}

// translateLauncherDefinition converts the HCL-specific launcher schema into the agnostic model.
func (l *Loader) translateLauncherDefinition(ctx context.Context, s *schema.LauncherDefinition) (*config.LauncherDefinition, error) {
	def := &config.LauncherDefinition{
		Type:        s.Type,
		Description: s.Description,
		Inputs:      make(map[string]*config.InputDefinition),
		Outputs:     make(map[string]*config.OutputDefinition),
		Uses:        make(map[string]*config.UsesDefinition),
	}
	if s.Lifecycle != nil {
		def.Lifecycle = &config.Lifecycle{OnLaunch: s.Lifecycle.OnLaunch}
	}

	for _, in := range s.Inputs {
		translatedInput, err := translateInputDefinition(ctx, in, "launcher", s.Type)
		if err != nil {
			return nil, err
		}
		def.Inputs[in.Name] = translatedInput
	}

	for _, out := range s.Outputs {
		parsedType, err := typeExprToCtyType(ctx, out.Type)
		if err != nil {
			return nil, fmt.Errorf("in launcher '%s', output '%s': %w", s.Type, out.Name, err)
		}
		def.Outputs[out.Name] = &config.OutputDefinition{
			Name:        out.Name,
			Type:        parsedType,
			Description: out.Description,
		}
	}

	for _, use := range s.Uses {
		def.Uses[use.LocalName] = &config.UsesDefinition{
			LocalName: use.LocalName,
			AssetType: use.AssetType,
		}
	}
	return def, nil
}

// translateAssetDefinition converts the HCL-specific asset schema into the agnostic model.
func (l *Loader) translateAssetDefinition(ctx context.Context, s *schema.AssetDefinition) (*config.AssetDefinition, error) {
	def := &config.AssetDefinition{
		Type:        s.Type,
		Description: s.Description,
		Inputs:      make(map[string]*config.InputDefinition),
		Outputs:     make(map[string]*config.OutputDefinition),
	}
	if s.Lifecycle != nil {
		def.Lifecycle = &config.AssetLifecycle{Create: s.Lifecycle.Create, Destroy: s.Lifecycle.Destroy}
	}

	for _, in := range s.Inputs {
		translatedInput, err := translateInputDefinition(ctx, in, "asset", s.Type)
		if err != nil {
			return nil, err
		}
		def.Inputs[in.Name] = translatedInput
	}

	for _, out := range s.Outputs {
		parsedType, err := typeExprToCtyType(ctx, out.Type)
		if err != nil {
			return nil, fmt.Errorf("in asset '%s', output '%s': %w", s.Type, out.Name, err)
		}
		def.Outputs[out.Name] = &config.OutputDefinition{
			Name:        out.Name,
			Type:        parsedType,
			Description: out.Description,
		}
	}
	return def, nil
}

// extractBodyAttributes flattens an arguments/uses block into a map of raw,
// unevaluated expressions keyed by attribute name.
func (l *Loader) extractBodyAttributes(block any) map[string]hcl.Expression {
	if block == nil {
		return nil
	}
	var body hcl.Body
	switch b := block.(type) {
	case *schema.JobArgs:
		if b == nil {
			return nil
		}
		body = b.Body
	case *schema.UsesBlock:
		if b == nil {
			return nil
		}
		body = b.Body
	default:
		return nil
	}
	if body == nil {
		return nil
	}
	attrs, _ := body.JustAttributes()
	if attrs == nil {
		return nil
	}
	exprMap := make(map[string]hcl.Expression)
	for name, attr := range attrs {
		exprMap[name] = attr.Expr
	}
	return exprMap
}
