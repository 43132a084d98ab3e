package plan

import (
	"encoding/json"
	"fmt"
)

// UnmarshalJSON decodes a step, restoring the concrete Params type from the
// step type so that decoded plans can be applied or simulated.
func (s *Step) UnmarshalJSON(data []byte) error {
	type plain Step
	var raw struct {
		plain
		Params json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Step(raw.plain)

	var params any
	switch s.Type {
	case StepEnableAutoLayout:
		params = new(EnableParams)
	case StepSetSpacing:
		params = new(SpacingParams)
	case StepSetPadding:
		params = new(PaddingParams)
	case StepSetAlignment:
		params = new(AlignmentParams)
	case StepSetSizing:
		params = new(SizingParams)
	case StepCreateGroup:
		params = new(GroupParams)
	default:
		return fmt.Errorf("unknown step type %q", s.Type)
	}
	if len(raw.Params) > 0 {
		if err := json.Unmarshal(raw.Params, params); err != nil {
			return fmt.Errorf("step %d params: %w", s.Order, err)
		}
	}

	switch p := params.(type) {
	case *EnableParams:
		s.Params = *p
	case *SpacingParams:
		s.Params = *p
	case *PaddingParams:
		s.Params = *p
	case *AlignmentParams:
		s.Params = *p
	case *SizingParams:
		s.Params = *p
	case *GroupParams:
		s.Params = *p
	}
	return nil
}
