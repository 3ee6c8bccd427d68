// Package sshcmd assembles the ssh and mosh invocations that connect a
// terminal to a container on the machine.
package sshcmd

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alexjbarnes/build-cli/internal/config"
	"github.com/alexjbarnes/build-cli/internal/machines"
)

const defaultSSHPort = 22

// IPResolver returns the machine's public address.
type IPResolver interface {
	IP(ctx context.Context, forceRefresh bool) (string, error)
}

// Builder turns connection options into a shell argv. The zero Port means
// 22.
type Builder struct {
	IPs      IPResolver
	Keys     KeyRegistrar
	User     string
	Port     int
	Identity string
	Logger   *slog.Logger

	// ensure provisions the default identity; replaced in tests.
	ensure func(ctx context.Context, path string, registrar KeyRegistrar) (bool, error)
}

// NewBuilder wires a builder from the loaded configuration.
func NewBuilder(cfg *config.Config, ips IPResolver, keys KeyRegistrar, logger *slog.Logger) *Builder {
	return &Builder{
		IPs:      ips,
		Keys:     keys,
		User:     cfg.SSHUser,
		Port:     cfg.SSHPort,
		Identity: cfg.SSHIdentity,
		Logger:   logger,
	}
}

// Options describe one connection.
type Options struct {
	Container      string
	Agent          bool
	LocalForwards  []string
	RemoteForwards []string
	Verbose        bool
	RefreshIP      bool
	// Command runs instead of the container's login shell.
	Command []string
}

// SSH returns the argv for an interactive ssh session into the container.
func (b *Builder) SSH(ctx context.Context, o Options) ([]string, error) {
	target, identity, err := b.prepare(ctx, o.Container, o.RefreshIP)
	if err != nil {
		return nil, err
	}

	args := append([]string{"ssh"}, b.transportFlags(identity)...)
	args = append(args, "-t")
	if o.Agent {
		args = append(args, "-A")
	}

	for _, f := range normalizeForwards(o.LocalForwards, o.Container) {
		args = append(args, "-L", f)
	}

	for _, f := range normalizeForwards(o.RemoteForwards, o.Container) {
		args = append(args, "-R", f)
	}

	if o.Verbose {
		args = append(args, "-v")
	}

	args = append(args, target, o.Container)
	args = append(args, trimCommand(o.Command)...)

	return shellArgv(args), nil
}

// MOSH returns the argv for a mosh session. ssh is only used by mosh to
// bootstrap, so it carries the identity and port but no forwards.
func (b *Builder) MOSH(ctx context.Context, o Options) ([]string, error) {
	target, identity, err := b.prepare(ctx, o.Container, o.RefreshIP)
	if err != nil {
		return nil, err
	}

	sshArg := strings.Join(append([]string{"ssh"}, b.transportFlags(identity)...), " ")

	// single-quoted so the outer shell leaves $ and backticks in the identity alone
	args := []string{"mosh", "--ssh=" + shellQuote(sshArg), target, o.Container}
	args = append(args, trimCommand(o.Command)...)

	return shellArgv(args), nil
}

// BuildImage returns the argv that runs build-ctl on the machine with
// agent forwarding, so the machine can clone private repositories.
func (b *Builder) BuildImage(ctx context.Context, name, gitURL string, verbose, refreshIP bool) ([]string, error) {
	ip, err := b.IPs.IP(ctx, refreshIP)
	if err != nil {
		return nil, err
	}

	identity, err := b.identity(ctx)
	if err != nil {
		return nil, err
	}

	args := append([]string{"ssh"}, b.transportFlags(identity)...)
	args = append(args, "-t", "-A")
	if verbose {
		args = append(args, "-v")
	}

	args = append(args, b.User+"@"+ip, "build-ctl")
	if name != "" {
		args = append(args, name)
	}

	args = append(args, gitURL)

	return shellArgv(args), nil
}

func (b *Builder) prepare(ctx context.Context, container string, refresh bool) (string, string, error) {
	if err := machines.ValidateContainerName(container); err != nil {
		return "", "", err
	}

	identity, err := b.identity(ctx)
	if err != nil {
		return "", "", err
	}

	ip, err := b.IPs.IP(ctx, refresh)
	if err != nil {
		return "", "", err
	}

	return b.User + "@" + ip, identity, nil
}

// identity resolves the configured identity path, generating and
// registering the reserved default key the first time it is used.
func (b *Builder) identity(ctx context.Context) (string, error) {
	path, err := config.ExpandHome(b.Identity)
	if err != nil {
		return "", err
	}

	reserved, err := config.ExpandHome(config.DefaultIdentity)
	if err != nil {
		return "", err
	}

	if path != reserved {
		return path, nil
	}

	ensure := b.ensure
	if ensure == nil {
		ensure = EnsureIdentity
	}

	created, err := ensure(ctx, path, b.Keys)
	if err != nil {
		return "", fmt.Errorf("provisioning ssh identity: %w", err)
	}

	if created && b.Logger != nil {
		b.Logger.Info("generated ssh identity", slog.String("path", path))
	}

	return path, nil
}

func (b *Builder) transportFlags(identity string) []string {
	flags := []string{"-i", shellQuote(identity)}
	if b.Port != 0 && b.Port != defaultSSHPort {
		flags = append(flags, "-p", strconv.Itoa(b.Port))
	}

	return flags
}

// trimCommand drops a leading "--" separator from the remote command.
func trimCommand(cmd []string) []string {
	if len(cmd) > 0 && cmd[0] == "--" {
		return cmd[1:]
	}

	return cmd
}

// shellArgv wraps a command line for /bin/sh -c. argv[0] is left empty.
func shellArgv(args []string) []string {
	return []string{"", "-c", strings.Join(args, " ")}
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$`!*?[]{}();&|<>#~") {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
