package wlmio

import (
	"errors"
	"time"

	"github.com/widgetlords/libwlmio/pkg/register"
	"github.com/widgetlords/libwlmio/pkg/services"
	"github.com/widgetlords/libwlmio/pkg/tracker"
	"github.com/widgetlords/libwlmio/pkg/transfer"
)

// GetInfoContinuation receives the outcome of a GetInfo call.
type GetInfoContinuation func(ctx any, err *Error, info services.NodeInfo)

// GetInfo asynchronously requests node's identity information.
func (e *Engine) GetInfo(node uint8, timeout time.Duration, ctx any, cont GetInfoContinuation) error {
	if !ValidNodeID(node) {
		return ErrInvalidNodeID
	}
	transferID, err := e.transfers.Request(node, services.PortGetInfo, transfer.PriorityNominal, services.EncodeGetInfoRequest())
	if err != nil {
		return NewError(ErrIO, err)
	}
	fp := transfer.Fingerprint(node, transferID, services.PortGetInfo)
	err = e.tracker.Track(fp, timeout, ctx, func(ctx any, payload []byte, timedOut bool) {
		if timedOut {
			cont(ctx, NewError(ErrTimeout, nil), services.NodeInfo{})
			return
		}
		info, err := services.DecodeGetInfoResponse(payload)
		if err != nil {
			cont(ctx, NewError(ErrProtocol, err), services.NodeInfo{})
			return
		}
		cont(ctx, nil, info)
	})
	if err != nil {
		return NewError(ErrOutOfMemory, err)
	}
	return nil
}

// RegisterAccessContinuation receives the outcome of a Register.Access call.
type RegisterAccessContinuation func(ctx any, err *Error, value register.Value)

// RegisterAccess asynchronously reads or writes the named register on
// node. Pass register.NewEmpty() as value for a pure read.
func (e *Engine) RegisterAccess(node uint8, name string, value register.Value, timeout time.Duration, ctx any, cont RegisterAccessContinuation) error {
	if !ValidNodeID(node) {
		return ErrInvalidNodeID
	}
	payload, err := register.EncodeRequest(name, value)
	if err != nil {
		return NewError(ErrInvalidArgument, err)
	}
	transferID, err := e.transfers.Request(node, services.PortRegisterAccess, transfer.PriorityNominal, payload)
	if err != nil {
		return NewError(ErrIO, err)
	}
	fp := transfer.Fingerprint(node, transferID, services.PortRegisterAccess)
	err = e.tracker.Track(fp, timeout, ctx, func(ctx any, respPayload []byte, timedOut bool) {
		if timedOut {
			cont(ctx, NewError(ErrTimeout, nil), register.Value{})
			return
		}
		decoded, err := register.DecodeResponse(respPayload)
		if err != nil {
			cont(ctx, NewError(ErrProtocol, err), register.Value{})
			return
		}
		if decoded.Tag == register.TagEmpty {
			cont(ctx, NewError(ErrNotFound, nil), decoded)
			return
		}
		cont(ctx, nil, decoded)
	})
	if err != nil {
		return NewError(ErrOutOfMemory, err)
	}
	return nil
}

// RegisterListContinuation receives the outcome of a Register.List call.
// end is true when name is empty, marking the end of the node's
// register namespace.
type RegisterListContinuation func(ctx any, err *Error, name string, end bool)

// RegisterList asynchronously enumerates node's registers by index.
func (e *Engine) RegisterList(node uint8, index uint16, timeout time.Duration, ctx any, cont RegisterListContinuation) error {
	if !ValidNodeID(node) {
		return ErrInvalidNodeID
	}
	transferID, err := e.transfers.Request(node, services.PortRegisterList, transfer.PriorityNominal, services.EncodeRegisterListRequest(index))
	if err != nil {
		return NewError(ErrIO, err)
	}
	fp := transfer.Fingerprint(node, transferID, services.PortRegisterList)
	err = e.tracker.Track(fp, timeout, ctx, func(ctx any, payload []byte, timedOut bool) {
		if timedOut {
			cont(ctx, NewError(ErrTimeout, nil), "", false)
			return
		}
		name, end := services.DecodeRegisterListResponse(payload)
		cont(ctx, nil, name, end)
	})
	if err != nil {
		return NewError(ErrOutOfMemory, err)
	}
	return nil
}

// RegisterWrite names one write of a compound configuration.
type RegisterWrite struct {
	Name  string
	Value register.Value
}

// CompoundContinuation receives the single outcome of a compound
// operation: nil if every sub-request succeeded, otherwise the first
// failure observed.
type CompoundContinuation func(ctx any, err *Error)

// RegisterWriteAll dispatches one Register.Access write per entry to
// node without waiting between them. cont fires exactly once, when
// every sub-request has either completed or failed synchronously.
func (e *Engine) RegisterWriteAll(node uint8, writes []RegisterWrite, timeout time.Duration, ctx any, cont CompoundContinuation) error {
	if !ValidNodeID(node) {
		return ErrInvalidNodeID
	}
	agg := tracker.NewAggregator(len(writes), func(err error) {
		if err == nil {
			cont(ctx, nil)
			return
		}
		var werr *Error
		if errors.As(err, &werr) {
			cont(ctx, werr)
			return
		}
		cont(ctx, NewError(ErrIO, err))
	})
	for _, w := range writes {
		payload, err := register.EncodeRequest(w.Name, w.Value)
		if err != nil {
			agg.DispatchFailed(NewError(ErrInvalidArgument, err))
			continue
		}
		transferID, err := e.transfers.Request(node, services.PortRegisterAccess, transfer.PriorityNominal, payload)
		if err != nil {
			agg.DispatchFailed(NewError(ErrIO, err))
			continue
		}
		fp := transfer.Fingerprint(node, transferID, services.PortRegisterAccess)
		err = e.tracker.Track(fp, timeout, nil, agg.SubscriptionContinuation(func(respPayload []byte, timedOut bool) error {
			if timedOut {
				return NewError(ErrTimeout, nil)
			}
			decoded, derr := register.DecodeResponse(respPayload)
			if derr != nil {
				return NewError(ErrProtocol, derr)
			}
			if decoded.Tag == register.TagEmpty {
				return NewError(ErrNotFound, nil)
			}
			return nil
		}))
		if err != nil {
			agg.DispatchFailed(NewError(ErrOutOfMemory, err))
		}
	}
	return nil
}

// ExecuteCommandContinuation receives the outcome of an ExecuteCommand call.
type ExecuteCommandContinuation func(ctx any, err *Error, status services.CommandStatus)

// ExecuteCommand asynchronously invokes a standard remote command on node.
func (e *Engine) ExecuteCommand(node uint8, commandID uint16, parameter []byte, timeout time.Duration, ctx any, cont ExecuteCommandContinuation) error {
	if !ValidNodeID(node) {
		return ErrInvalidNodeID
	}
	payload, err := services.EncodeExecuteCommandRequest(commandID, parameter)
	if err != nil {
		return NewError(ErrInvalidArgument, err)
	}
	transferID, err := e.transfers.Request(node, services.PortExecuteCommand, transfer.PriorityNominal, payload)
	if err != nil {
		return NewError(ErrIO, err)
	}
	fp := transfer.Fingerprint(node, transferID, services.PortExecuteCommand)
	err = e.tracker.Track(fp, timeout, ctx, func(ctx any, respPayload []byte, timedOut bool) {
		if timedOut {
			cont(ctx, NewError(ErrTimeout, nil), 0)
			return
		}
		status, err := services.DecodeExecuteCommandResponse(respPayload)
		if err != nil {
			cont(ctx, NewError(ErrProtocol, err), 0)
			return
		}
		cont(ctx, nil, status)
	})
	if err != nil {
		return NewError(ErrOutOfMemory, err)
	}
	return nil
}
