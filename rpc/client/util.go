package client

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/zKV/rpc/common"
	"github.com/ValentinKolb/zKV/rpc/serializer"
	"github.com/ValentinKolb/zKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("client")
)

// ErrUnexpectedResponse is returned when a reply has a tag the command
// never produces
var ErrUnexpectedResponse = errors.New("unexpected response type")

// invokeRPCRequest is a helper function used for all client calls to send requests
// It encodes args, sends them through the transport and decodes the reply.
// ERR replies are returned as value, not converted to an error.
func invokeRPCRequest(transport transport.IRPCClientTransport, args []string) (serializer.Value, error) {
	req, err := serializer.EncodeRequest(args)
	if err != nil {
		return serializer.Value{}, err
	}

	resp, err := transport.Send(req)
	if err != nil {
		return serializer.Value{}, err
	}

	v, err := serializer.DecodeResponse(resp)
	if err != nil {
		return serializer.Value{}, fmt.Errorf("invalid response to %q: %w", args[0], err)
	}
	return v, nil
}

// expect converts an ERR reply into *common.Error and checks the tag of
// any other reply against the allowed ones
func expect(v serializer.Value, tags ...common.Tag) error {
	if err := v.Err(); err != nil {
		return err
	}
	for _, tag := range tags {
		if v.Tag == tag {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnexpectedResponse, v.Tag)
}
