package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"must-burn/internal/burn"
	"must-burn/internal/config"
	"must-burn/internal/device"
	"must-burn/internal/logging"
)

type writeFlags struct {
	copyBuffer   string
	verifyBuffer string
	noVerify     bool
	unmount      bool
	yes          bool
}

func (a *app) newWriteCommand() *cobra.Command {
	var f writeFlags
	cmd := &cobra.Command{
		Use:   "write IMAGE DEVICE",
		Short: "Write an image to a device and verify it",
		Long: "Write IMAGE to DEVICE starting at offset 0, then read the device back and compare it with the image.\n" +
			"Everything on DEVICE is destroyed.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.request(args[0], args[1], f)
			if err != nil {
				return err
			}
			if err := a.confirm(req.Target, f.yes); err != nil {
				return err
			}
			if f.unmount || a.cfg.Unmount {
				if err := a.unmount(req.Target); err != nil {
					return err
				}
			}
			return a.run(cmd.Context(), req)
		},
	}
	cmd.Flags().StringVar(&f.copyBuffer, "copy-buffer", "", "copy chunk size, e.g. 4M (default from config, 1M)")
	cmd.Flags().StringVar(&f.verifyBuffer, "verify-buffer", "", "verify chunk size, e.g. 64K (default from config)")
	cmd.Flags().BoolVar(&f.noVerify, "no-verify", false, "skip reading the device back after writing")
	cmd.Flags().BoolVar(&f.unmount, "unmount", false, "unmount mounted partitions of DEVICE before writing")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *app) newVerifyCommand() *cobra.Command {
	var f writeFlags
	cmd := &cobra.Command{
		Use:   "verify IMAGE DEVICE",
		Short: "Compare a device with an image without writing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.request(args[0], args[1], f)
			if err != nil {
				return err
			}
			req.VerifyOnly = true
			req.SkipVerify = false
			return a.run(cmd.Context(), req)
		},
	}
	cmd.Flags().StringVar(&f.verifyBuffer, "verify-buffer", "", "verify chunk size, e.g. 64K (default from config)")
	return cmd
}

// request merges flags over the configuration.
func (a *app) request(image, target string, f writeFlags) (burn.Request, error) {
	copyBuf, verifyBuf, err := a.cfg.Sizes()
	if err != nil {
		return burn.Request{}, err
	}
	if f.copyBuffer != "" {
		if copyBuf, err = config.ParseBufferSize(f.copyBuffer); err != nil {
			return burn.Request{}, fmt.Errorf("--copy-buffer: %w", err)
		}
	}
	if f.verifyBuffer != "" {
		if verifyBuf, err = config.ParseBufferSize(f.verifyBuffer); err != nil {
			return burn.Request{}, fmt.Errorf("--verify-buffer: %w", err)
		}
	}
	return burn.Request{
		Source: image,
		Target: target,
		Options: burn.Options{
			CopyBufferSize:   copyBuf,
			VerifyBufferSize: verifyBuf,
			ProgressInterval: a.cfg.ProgressInterval,
			SkipVerify:       f.noVerify || !a.cfg.Verify,
		},
	}, nil
}

func (a *app) confirm(target string, yes bool) error {
	if yes {
		return nil
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return errors.New("refusing to write without confirmation; pass --yes")
	}
	ok, err := pterm.DefaultInteractiveConfirm.
		WithDefaultValue(false).
		Show(fmt.Sprintf("All data on %s will be destroyed. Continue?", target))
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("aborted")
	}
	return nil
}

func (a *app) unmount(target string) error {
	t, err := device.Describe(a.info, target)
	if err != nil {
		return fmt.Errorf("read mount table: %w", err)
	}
	if !t.Mounted() {
		return nil
	}
	for _, m := range t.Mounts {
		pterm.Info.Printfln("Unmounting %s from %s", m.Device, m.MountPoint)
	}
	return device.Unmount(t.Mounts)
}

func (a *app) run(ctx context.Context, req burn.Request) error {
	log := logging.Component("session")
	if ok, err := device.IsElevated(); !ok {
		log.Warn().AnErr("reason", err).Msg("Not running with elevated privileges, opening the device may fail")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := burn.NewManager(a.info, log)
	s, err := m.Start(ctx, req)
	if err != nil {
		return err
	}
	render(s.Samples())
	out := s.Wait()

	if out.Err != nil {
		var e *burn.Error
		if errors.As(out.Err, &e) {
			pterm.Error.Println(e.UserMessage())
			if e.Kind == burn.KindDeviceMounted {
				pterm.Info.Println("Run again with --unmount to unmount it first.")
			}
		}
		return out.Err
	}

	switch {
	case req.VerifyOnly:
		pterm.Success.Printfln("%s matches %s (%d bytes compared)", out.Target.Path, out.Source.Path, out.BytesVerified)
	case out.Verified:
		pterm.Success.Printfln("Wrote and verified %d bytes to %s in %s", out.BytesWritten, out.Target.Path, out.Duration.Round(time.Millisecond))
	default:
		pterm.Success.Printfln("Wrote %d bytes to %s in %s (not verified)", out.BytesWritten, out.Target.Path, out.Duration.Round(time.Millisecond))
	}
	return nil
}
