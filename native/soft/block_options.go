package soft

import (
	"fmt"
	"slices"

	"github.com/xaionaro-go/rsframe/native"
)

type optionState struct {
	native.OptionRange
	value             float32
	readOnly          bool
	description       string
	valueDescriptions map[float32]string
}

func newOptionState(spec OptionSpec) *optionState {
	return &optionState{
		OptionRange:       spec.Range,
		value:             spec.Range.Default,
		readOnly:          spec.ReadOnly,
		description:       spec.Description,
		valueDescriptions: spec.ValueDescriptions,
	}
}

func optionArgs(b native.BlockHandle, opt native.Option) string {
	return fmt.Sprintf("%s, option:%s", blockArgs(b), opt)
}

// withOption calls fn under the runtime lock with the state of the option.
func (r *Runtime) withOption(
	function string,
	h native.BlockHandle,
	opt native.Option,
	fn func(st *optionState) *native.Error,
) *native.Error {
	b, nerr := r.getBlock(function, h)
	if nerr != nil {
		return nerr
	}
	r.do(func() {
		st, ok := b.options[opt]
		if !ok {
			nerr = newError(function, optionArgs(h, opt), native.ExceptionTypeInvalidValue, "option %s is not supported by this block", opt)
			return
		}
		nerr = fn(st)
	})
	return nerr
}

func (r *Runtime) SupportsOption(h native.BlockHandle, opt native.Option) (bool, *native.Error) {
	b, nerr := r.getBlock("SupportsOption", h)
	if nerr != nil {
		return false, nerr
	}
	var ok bool
	r.do(func() {
		_, ok = b.options[opt]
	})
	return ok, nil
}

func (r *Runtime) GetOption(h native.BlockHandle, opt native.Option) (float32, *native.Error) {
	var v float32
	nerr := r.withOption("GetOption", h, opt, func(st *optionState) *native.Error {
		v = st.value
		return nil
	})
	return v, nerr
}

func (r *Runtime) SetOption(h native.BlockHandle, opt native.Option, value float32) *native.Error {
	return r.withOption("SetOption", h, opt, func(st *optionState) *native.Error {
		if st.readOnly {
			return newError("SetOption", fmt.Sprintf("%s, value:%g", optionArgs(h, opt), value), native.ExceptionTypeNotImplemented, "This option is read-only!")
		}
		if !st.Contains(value) {
			return newError("SetOption", fmt.Sprintf("%s, value:%g", optionArgs(h, opt), value), native.ExceptionTypeInvalidValue, "set(%s) failed! %g is not a valid value", opt, value)
		}
		st.value = value
		return nil
	})
}

func (r *Runtime) GetOptionRange(h native.BlockHandle, opt native.Option) (native.OptionRange, *native.Error) {
	var rng native.OptionRange
	nerr := r.withOption("GetOptionRange", h, opt, func(st *optionState) *native.Error {
		rng = st.OptionRange
		return nil
	})
	return rng, nerr
}

func (r *Runtime) IsOptionReadOnly(h native.BlockHandle, opt native.Option) (bool, *native.Error) {
	var readOnly bool
	nerr := r.withOption("IsOptionReadOnly", h, opt, func(st *optionState) *native.Error {
		readOnly = st.readOnly
		return nil
	})
	return readOnly, nerr
}

func (r *Runtime) GetOptionDescription(h native.BlockHandle, opt native.Option) (string, *native.Error) {
	var desc string
	nerr := r.withOption("GetOptionDescription", h, opt, func(st *optionState) *native.Error {
		desc = st.description
		return nil
	})
	return desc, nerr
}

func (r *Runtime) GetOptionValueDescription(h native.BlockHandle, opt native.Option, value float32) (string, *native.Error) {
	var desc string
	nerr := r.withOption("GetOptionValueDescription", h, opt, func(st *optionState) *native.Error {
		desc = st.valueDescriptions[value]
		return nil
	})
	return desc, nerr
}

func (r *Runtime) GetOptionsList(h native.BlockHandle) ([]native.Option, *native.Error) {
	b, nerr := r.getBlock("GetOptionsList", h)
	if nerr != nil {
		return nil, nerr
	}
	var opts []native.Option
	r.do(func() {
		for opt := range b.options {
			opts = append(opts, opt)
		}
	})
	slices.Sort(opts)
	return opts, nil
}

func (r *Runtime) ProcessingBlockRegisterSimpleOption(h native.BlockHandle, opt native.Option, rng native.OptionRange) *native.Error {
	const function = "ProcessingBlockRegisterSimpleOption"
	b, nerr := r.getBlock(function, h)
	if nerr != nil {
		return nerr
	}
	args := fmt.Sprintf("%s, min:%g, max:%g, step:%g, default:%g", optionArgs(h, opt), rng.Min, rng.Max, rng.Step, rng.Default)
	if rng.Min > rng.Max || !rng.Contains(rng.Default) {
		return newError(function, args, native.ExceptionTypeInvalidValue, "the default value must be within [min, max]")
	}
	r.do(func() {
		if _, ok := b.options[opt]; ok {
			nerr = newError(function, args, native.ExceptionTypeWrongAPICallSequence, "option %s is already registered", opt)
			return
		}
		b.options[opt] = newOptionState(OptionSpec{Option: opt, Range: rng})
	})
	return nerr
}
