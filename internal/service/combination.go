package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"marketplace-catalog/internal/model"
)

// AttributeSelection is the set of options a seller picked for one attribute.
type AttributeSelection struct {
	AttributeID uint
	OptionIDs   []uint
}

// Selections keeps attribute selections in the order the client wrote them.
// It decodes from a JSON object {"<attribute_id>": [<option_id>, ...]}
// without losing key order, which drives the order of the generated
// combinations. A repeated attribute key adds its options to the first one.
type Selections []AttributeSelection

func (s *Selections) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("variant_attributes must be an object keyed by attribute id")
	}

	result := Selections{}
	position := make(map[uint]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		attributeID, err := strconv.ParseUint(strings.TrimSpace(key), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid attribute id %q", key)
		}

		var raw []json.Number
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("attribute %s: option ids must be an array of numbers", key)
		}
		optionIDs := make([]uint, 0, len(raw))
		for _, n := range raw {
			id, err := strconv.ParseUint(n.String(), 10, 64)
			if err != nil {
				return fmt.Errorf("attribute %s: invalid option id %s", key, n)
			}
			optionIDs = append(optionIDs, uint(id))
		}

		if i, ok := position[uint(attributeID)]; ok {
			result[i].OptionIDs = append(result[i].OptionIDs, optionIDs...)
			continue
		}
		position[uint(attributeID)] = len(result)
		result = append(result, AttributeSelection{AttributeID: uint(attributeID), OptionIDs: optionIDs})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = result
	return nil
}

// AttributeIDs lists the selected attribute ids in selection order.
func (s Selections) AttributeIDs() []uint {
	ids := make([]uint, len(s))
	for i, sel := range s {
		ids[i] = sel.AttributeID
	}
	return ids
}

// CombinationEntry is one attribute's chosen option inside a combination.
type CombinationEntry struct {
	AttributeID   uint   `json:"-"`
	AttributeName string `json:"attribute_name"`
	AttributeSlug string `json:"attribute_slug"`
	OptionID      uint   `json:"option_id"`
	Value         string `json:"value"`
	Label         string `json:"label"`
}

// Combination is one cartesian-product tuple, destined to become one variant.
type Combination struct {
	Attributes  []CombinationEntry
	DisplayName string
}

// OptionIDs maps attribute id to option id for this combination.
func (c Combination) OptionIDs() map[uint]uint {
	m := make(map[uint]uint, len(c.Attributes))
	for _, e := range c.Attributes {
		m[e.AttributeID] = e.OptionID
	}
	return m
}

// MarshalJSON writes attributes as an object keyed by attribute id, in
// generation order.
func (c Combination) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"attributes":{`)
	for i, e := range c.Attributes {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.FormatUint(uint64(e.AttributeID), 10)))
		buf.WriteByte(':')
		entry, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		buf.Write(entry)
	}
	buf.WriteString(`},"display_name":`)
	name, err := json.Marshal(c.DisplayName)
	if err != nil {
		return nil, err
	}
	buf.Write(name)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// resolveOptions keeps the selected options that belong to the attribute and
// are active, in selection order, without duplicates.
func resolveOptions(attribute *model.Attribute, optionIDs []uint) []*model.AttributeOption {
	byID := make(map[uint]*model.AttributeOption, len(attribute.Options))
	for i := range attribute.Options {
		byID[attribute.Options[i].ID] = &attribute.Options[i]
	}

	seen := make(map[uint]bool, len(optionIDs))
	options := make([]*model.AttributeOption, 0, len(optionIDs))
	for _, id := range optionIDs {
		opt, ok := byID[id]
		if !ok || !opt.IsActive || seen[id] {
			continue
		}
		seen[id] = true
		options = append(options, opt)
	}
	return options
}

// CountCombinations returns how many combinations GenerateCombinations would
// produce, saturating at math.MaxInt instead of overflowing.
func CountCombinations(selections Selections, attributes map[uint]*model.Attribute) int {
	count, factors := 1, 0
	for _, sel := range selections {
		attribute, ok := attributes[sel.AttributeID]
		if !ok {
			continue
		}
		k := len(resolveOptions(attribute, sel.OptionIDs))
		if k == 0 {
			return 0
		}
		factors++
		if count > math.MaxInt/k {
			count = math.MaxInt
			continue
		}
		count *= k
	}
	if factors == 0 {
		return 0
	}
	return count
}

// GenerateCombinations expands the selections into their cartesian product.
//
// Attributes are visited in selection order and options in the order they
// were selected, so for Color=[Red, Blue] followed by Size=[M, L] the result
// is "Red / M", "Red / L", "Blue / M", "Blue / L". Selections referring to an
// unknown attribute are skipped. An attribute whose selection resolves to no
// active option empties the whole result, as does a selection with no known
// attribute at all.
func GenerateCombinations(selections Selections, attributes map[uint]*model.Attribute) []Combination {
	partials := [][]CombinationEntry{{}}
	factors := 0

	for _, sel := range selections {
		attribute, ok := attributes[sel.AttributeID]
		if !ok {
			continue
		}
		options := resolveOptions(attribute, sel.OptionIDs)
		factors++

		next := make([][]CombinationEntry, 0, len(partials)*len(options))
		for _, partial := range partials {
			for _, opt := range options {
				extended := make([]CombinationEntry, len(partial), len(partial)+1)
				copy(extended, partial)
				extended = append(extended, CombinationEntry{
					AttributeID:   attribute.ID,
					AttributeName: attribute.Name,
					AttributeSlug: attribute.Slug,
					OptionID:      opt.ID,
					Value:         opt.Value,
					Label:         opt.DisplayLabel(),
				})
				next = append(next, extended)
			}
		}
		partials = next
	}

	if factors == 0 {
		return []Combination{}
	}

	combinations := make([]Combination, 0, len(partials))
	for _, entries := range partials {
		labels := make([]string, len(entries))
		for i, e := range entries {
			labels[i] = e.Label
		}
		combinations = append(combinations, Combination{
			Attributes:  entries,
			DisplayName: strings.Join(labels, " / "),
		})
	}
	return combinations
}
