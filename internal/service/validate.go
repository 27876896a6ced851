package service

import (
	"sort"

	"imposter/internal/domain"
	"imposter/internal/domain/fieldtree"
	"imposter/internal/domain/models"
)

// ValidateFields checks a candidate value tree against a template's field
// schema and returns the normalized (candidate-over-prior deep-merged) tree.
//
// The contract is partial-update aware: top-level mandatory fields and leaf
// mandatory parameters already satisfied by the prior stored tree are not
// reported missing, while parameter checks run only over leaves literally
// present in the candidate. On the first violation a *domain.FieldError is
// returned with the offending names in ascending order.
func ValidateFields(candidate fieldtree.Tree, schema models.FieldSchema, prior fieldtree.Tree) (fieldtree.Tree, error) {
	editable := schema.Editable()
	merged := fieldtree.Merge(candidate, prior)

	if disallowed := subtractKeys(merged.Keys(), editable); len(disallowed) > 0 {
		return nil, &domain.FieldError{Kind: domain.FieldsNotAllowed, Names: disallowed}
	}

	var missing []string
	for name, fs := range editable {
		if fs.Mandatory && candidate.Get(name) == nil && prior.Get(name) == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &domain.FieldError{Kind: domain.MissingRequiredFields, Names: missing}
	}

	if err := validateParams(candidate, schema, prior, ""); err != nil {
		return nil, err
	}

	return merged, nil
}

// validateParams walks the candidate tree depth-first checking each leaf's
// parameter set against its effective type. Untyped groups pass the nearest
// ancestor's declared type down; for nested leaves the inherited type wins
// over the leaf's own schema entry.
func validateParams(candidate fieldtree.Tree, schema models.FieldSchema, prior fieldtree.Tree, inherited models.FieldType) error {
	for _, name := range candidate.Keys() {
		node := candidate[name]

		var own models.FieldType
		var children models.FieldSchema
		if fs := schema[name]; fs != nil {
			own = fs.Type
			children = fs.Children
		}

		if node.IsGroup() {
			down := own
			if down == "" {
				down = inherited
			}
			var priorChildren fieldtree.Tree
			if p := prior.Get(name); p.IsGroup() {
				priorChildren = p.Children
			}
			if err := validateParams(node.Children, children, priorChildren, down); err != nil {
				return err
			}
			continue
		}

		fieldType := inherited
		if fieldType == "" {
			fieldType = own
		}
		if fieldType == "" {
			// Leaf named outside the schema with no ancestor type to inherit.
			return &domain.FieldError{Kind: domain.FieldsNotAllowed, Names: []string{name}}
		}

		var priorLeaf fieldtree.Params
		if p := prior.Get(name); p != nil && !p.IsGroup() {
			priorLeaf = p.Params
		}
		if err := validateLeaf(name, fieldType, node.Params, priorLeaf); err != nil {
			return err
		}
	}
	return nil
}

func validateLeaf(name string, fieldType models.FieldType, leaf, prior fieldtree.Params) error {
	allowed := fieldType.AllowedParams()

	var disallowed []string
	for _, k := range leaf.Keys() {
		if !allowed[k] {
			disallowed = append(disallowed, k)
		}
	}
	if len(disallowed) > 0 {
		return &domain.FieldError{
			Kind:      domain.ParamsNotAllowed,
			Field:     name,
			FieldType: string(fieldType),
			Names:     disallowed,
		}
	}

	// An image leaf referencing a stored image (its own or the prior one)
	// needs no fresh payload. A leaf that does carry new data is a
	// replacement and must satisfy the payload params itself.
	if fieldType == models.FieldImage && !leaf.Has("data") && (leaf.Has("id") || prior.Has("id")) {
		return nil
	}

	var missing []string
	for k := range fieldType.MandatoryParams() {
		if !leaf.Has(k) && !prior.Has(k) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &domain.FieldError{
			Kind:      domain.MissingRequiredParams,
			Field:     name,
			FieldType: string(fieldType),
			Names:     missing,
		}
	}
	return nil
}

// subtractKeys returns names not present in the schema, sorted ascending.
func subtractKeys(names []string, schema models.FieldSchema) []string {
	var out []string
	for _, name := range names {
		if _, ok := schema[name]; !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
