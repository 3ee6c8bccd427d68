package machines

import (
	"context"
	"fmt"
	"strings"

	builderr "github.com/alexjbarnes/build-cli/internal/errors"
)

// noComment is appended to keys without a comment; the backend expects
// three fields per authorized_keys line.
const noComment = "no-comment"

// SSHKeys manages the machine's authorized_keys.
type SSHKeys struct {
	client *Client
}

// Add registers an authorized_keys style line.
func (k *SSHKeys) Add(ctx context.Context, line string) (Response, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Response{}, builderr.Invalid("ssh key", strings.TrimSpace(line), "expected `<type> <key> [comment]`")
	}

	if len(fields) == 2 {
		fields = append(fields, noComment)
	}

	resp, err := k.client.Run(ctx, "add-ssh-key", map[string]any{"ssh_key": strings.Join(fields, " ")})
	if err != nil {
		return Response{}, fmt.Errorf("adding ssh key: %w", err)
	}

	return resp, nil
}

// List returns the raw authorized_keys content.
func (k *SSHKeys) List(ctx context.Context) (string, error) {
	resp, err := k.client.Run(ctx, "list-ssh-key", nil)
	if err != nil {
		return "", fmt.Errorf("listing ssh keys: %w", err)
	}

	return resp.String("list_authorized_keys")
}

// Remove deletes the key at index, as numbered by List.
func (k *SSHKeys) Remove(ctx context.Context, index uint) (Response, error) {
	resp, err := k.client.Run(ctx, "remove-ssh-key", map[string]any{"key_index": index})
	if err != nil {
		return Response{}, fmt.Errorf("removing ssh key: %w", err)
	}

	return resp, nil
}
