package client

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ScorpioXKiller/client-backup-app/pkg/protocol"
)

// Demo runs the classic end-to-end exercise against a live server: list,
// back up the first two files, list again, restore the first file under
// restoreAs, delete it, then restore it once more expecting not-found.
// Each step opens its own connection. The first fatal error stops the run.
func (c *Client) Demo(ctx context.Context, files []string, restoreAs string) error {
	if _, err := c.List(ctx); err != nil {
		return err
	}

	n := len(files)
	if n > 2 {
		n = 2
	}
	if n > 0 {
		if _, err := c.Backup(ctx, files[:n]); err != nil {
			return err
		}
	}

	if _, err := c.List(ctx); err != nil {
		return err
	}

	if len(files) == 0 {
		return nil
	}
	first := files[0]

	if _, err := c.Restore(ctx, []RestoreTarget{{Name: first, SaveAs: restoreAs}}); err != nil {
		return err
	}
	if _, err := c.Delete(ctx, []string{first}); err != nil {
		return err
	}

	rep, err := c.RestoreAll(ctx, []string{first})
	if err != nil {
		return err
	}
	for _, o := range rep.Outcomes {
		var se *protocol.StatusError
		if errors.As(o.Err, &se) && se.Status == protocol.StatusNotFound {
			c.logger.Info("File gone after delete, as expected", zap.String("file", o.Name))
		}
	}
	return nil
}
