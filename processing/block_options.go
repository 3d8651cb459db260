package processing

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/rsframe/internal"
	"github.com/xaionaro-go/rsframe/native"
	"github.com/xaionaro-go/rsframe/types"
)

// BlockOptions is the set of tunable values of a processing block.
type BlockOptions struct {
	API   native.API
	Block native.BlockHandle
}

// OptionInfo is a snapshot of one option.
type OptionInfo struct {
	Option      native.Option
	Value       float32
	Range       native.OptionRange
	ReadOnly    bool
	Description string
}

func (info OptionInfo) String() string {
	ro := ""
	if info.ReadOnly {
		ro = ", read-only"
	}
	return fmt.Sprintf("%s=%g [%g..%g/%g, default %g%s]", info.Option, info.Value, info.Range.Min, info.Range.Max, info.Range.Step, info.Range.Default, ro)
}

func optCall[T any](o *BlockOptions, fn func(native.BlockHandle) (T, *native.Error)) (T, error) {
	if o.Block == 0 {
		var zero T
		return zero, types.ErrClosed{}
	}
	v, nerr := fn(o.Block)
	if nerr != nil {
		return v, internal.ErrorFrom(o.API, nerr)
	}
	return v, nil
}

func (o *BlockOptions) Supports(ctx context.Context, opt native.Option) (bool, error) {
	return optCall(o, func(b native.BlockHandle) (bool, *native.Error) {
		return o.API.SupportsOption(b, opt)
	})
}

func (o *BlockOptions) Get(ctx context.Context, opt native.Option) (float32, error) {
	return optCall(o, func(b native.BlockHandle) (float32, *native.Error) {
		return o.API.GetOption(b, opt)
	})
}

// Set fails for read-only options and for values outside of the range.
func (o *BlockOptions) Set(ctx context.Context, opt native.Option, value float32) error {
	_, err := optCall(o, func(b native.BlockHandle) (struct{}, *native.Error) {
		return struct{}{}, o.API.SetOption(b, opt, value)
	})
	return err
}

func (o *BlockOptions) Range(ctx context.Context, opt native.Option) (native.OptionRange, error) {
	return optCall(o, func(b native.BlockHandle) (native.OptionRange, *native.Error) {
		return o.API.GetOptionRange(b, opt)
	})
}

func (o *BlockOptions) IsReadOnly(ctx context.Context, opt native.Option) (bool, error) {
	return optCall(o, func(b native.BlockHandle) (bool, *native.Error) {
		return o.API.IsOptionReadOnly(b, opt)
	})
}

func (o *BlockOptions) Description(ctx context.Context, opt native.Option) (string, error) {
	return optCall(o, func(b native.BlockHandle) (string, *native.Error) {
		return o.API.GetOptionDescription(b, opt)
	})
}

// ValueDescription returns the name of an enumerated value, e.g. of a
// hole filling mode; empty if the value has no name.
func (o *BlockOptions) ValueDescription(ctx context.Context, opt native.Option, value float32) (string, error) {
	return optCall(o, func(b native.BlockHandle) (string, *native.Error) {
		return o.API.GetOptionValueDescription(b, opt, value)
	})
}

func (o *BlockOptions) List(ctx context.Context) ([]native.Option, error) {
	return optCall(o, func(b native.BlockHandle) ([]native.Option, *native.Error) {
		return o.API.GetOptionsList(b)
	})
}

func (o *BlockOptions) Info(ctx context.Context, opt native.Option) (OptionInfo, error) {
	info := OptionInfo{Option: opt}
	var err error
	if info.Value, err = o.Get(ctx, opt); err != nil {
		return info, fmt.Errorf("unable to get the value of %s: %w", opt, err)
	}
	if info.Range, err = o.Range(ctx, opt); err != nil {
		return info, fmt.Errorf("unable to get the range of %s: %w", opt, err)
	}
	if info.ReadOnly, err = o.IsReadOnly(ctx, opt); err != nil {
		return info, fmt.Errorf("unable to check if %s is read-only: %w", opt, err)
	}
	if info.Description, err = o.Description(ctx, opt); err != nil {
		return info, fmt.Errorf("unable to get the description of %s: %w", opt, err)
	}
	return info, nil
}

func (o *BlockOptions) All(ctx context.Context) ([]OptionInfo, error) {
	opts, err := o.List(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]OptionInfo, 0, len(opts))
	for _, opt := range opts {
		info, err := o.Info(ctx, opt)
		if err != nil {
			return nil, err
		}
		result = append(result, info)
	}
	return result, nil
}
