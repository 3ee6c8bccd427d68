package machines

import (
	"context"
	"fmt"
)

// Images lists the user's saved images.
type Images struct {
	client *Client
}

// List returns saved images. reference, when set, filters by image
// reference.
func (i *Images) List(ctx context.Context, all bool, reference string) (Response, error) {
	args := map[string]any{"all": all}
	if reference != "" {
		args["reference"] = reference
	}

	resp, err := i.client.Run(ctx, "list", args)
	if err != nil {
		return Response{}, fmt.Errorf("listing images: %w", err)
	}

	return resp, nil
}
