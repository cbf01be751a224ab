package client

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ScorpioXKiller/client-backup-app/pkg/protocol"
)

// List asks the server for the files owned by this user, in server order.
// An empty account (no-files status) is an empty listing, not an error.
func (c *Client) List(ctx context.Context) ([]protocol.FileInfo, error) {
	start := time.Now()
	s, err := c.connect(ctx, OpList)
	if err != nil {
		c.collector.ObserveOp(string(OpList), false, time.Since(start))
		return nil, err
	}

	resp, err := s.roundTrip(s.request(protocol.ReqList, ""), nil)
	if err != nil {
		s.finish(false)
		c.collector.ObserveOp(string(OpList), false, time.Since(start))
		return nil, err
	}

	var files []protocol.FileInfo
	switch resp.Status {
	case protocol.StatusFileList:
		files, err = protocol.ParseListing(resp.Payload)
	case protocol.StatusNoFiles:
		// nothing stored yet
	case protocol.StatusServerErr, protocol.StatusNotFound:
		err = &protocol.StatusError{Status: resp.Status}
	default:
		err = fmt.Errorf("%w: status %s does not answer a list request", protocol.ErrMalformed, resp.Status)
	}
	if err != nil {
		s.finish(false)
		c.collector.ObserveOp(string(OpList), false, time.Since(start))
		return nil, err
	}

	s.finish(true)
	c.collector.ObserveOp(string(OpList), true, time.Since(start))
	c.logger.Info("Listed stored files", zap.Int("count", len(files)))
	return files, nil
}

// Backup uploads the given files in order, one request/response pair each.
// A local read failure or a per-file server error is recorded and the batch
// moves on; a connection-level failure aborts the remaining files. The
// returned error is the fatal error only — inspect the Report for per-file
// results.
func (c *Client) Backup(ctx context.Context, paths []string) (*Report, error) {
	start := time.Now()
	rep := &Report{Op: OpBackup}

	s, err := c.connect(ctx, OpBackup)
	if err != nil {
		rep.Err = err
		for _, p := range paths {
			rep.Outcomes = append(rep.Outcomes, FileOutcome{Name: p})
		}
		c.observeReport(rep, start)
		return rep, err
	}

	for _, path := range paths {
		if rep.Err != nil {
			rep.Outcomes = append(rep.Outcomes, FileOutcome{Name: path})
			continue
		}

		content, err := c.fs.ReadAll(path)
		if err != nil {
			// Local failure: nothing was sent, the connection is still
			// positioned at a message boundary.
			rep.Outcomes = append(rep.Outcomes, FileOutcome{Name: path, Attempted: true, Err: err})
			c.logger.Warn("Skipping unreadable file", zap.String("file", path), zap.Error(err))
			continue
		}
		if len(content) > protocol.MaxPayload {
			// The u32 size field cannot declare this much; sending would put
			// a wrong length on the wire and desync the stream.
			err := fmt.Errorf("%w: %s is %d bytes, limit %d", protocol.ErrTooLarge, path, len(content), protocol.MaxPayload)
			rep.Outcomes = append(rep.Outcomes, FileOutcome{Name: path, Attempted: true, Err: err})
			c.logger.Warn("Skipping oversized file", zap.String("file", path), zap.Error(err))
			continue
		}

		resp, err := s.roundTrip(s.request(protocol.ReqBackup, path), content)
		if err != nil {
			rep.Outcomes = append(rep.Outcomes, FileOutcome{Name: path, Attempted: true, Err: err})
			rep.Err = err
			continue
		}
		out, err := c.ackOutcome(rep.Op, path, resp)
		rep.Outcomes = append(rep.Outcomes, out)
		if err != nil {
			rep.Err = err
		}
	}

	s.finish(rep.OK())
	c.observeReport(rep, start)
	return rep, rep.Err
}

// RestoreTarget names one file to retrieve and where to write it locally.
// An empty SaveAs writes under the stored name.
type RestoreTarget struct {
	Name   string
	SaveAs string
}

// Restore retrieves the given files in order. Not-found is a per-file
// failure; the batch continues. The received byte count always matches the
// size the server declared, or the operation fails as malformed.
func (c *Client) Restore(ctx context.Context, targets []RestoreTarget) (*Report, error) {
	start := time.Now()
	rep := &Report{Op: OpRestore}

	s, err := c.connect(ctx, OpRestore)
	if err != nil {
		rep.Err = err
		for _, t := range targets {
			rep.Outcomes = append(rep.Outcomes, FileOutcome{Name: t.Name})
		}
		c.observeReport(rep, start)
		return rep, err
	}

	for _, t := range targets {
		if rep.Err != nil {
			rep.Outcomes = append(rep.Outcomes, FileOutcome{Name: t.Name})
			continue
		}

		resp, err := s.roundTrip(s.request(protocol.ReqRestore, t.Name), nil)
		if err != nil {
			rep.Outcomes = append(rep.Outcomes, FileOutcome{Name: t.Name, Attempted: true, Err: err})
			rep.Err = err
			continue
		}

		switch resp.Status {
		case protocol.StatusFound:
			saveAs := t.SaveAs
			if saveAs == "" {
				saveAs = t.Name
			}
			if err := c.fs.WriteAll(saveAs, resp.Payload); err != nil {
				rep.Outcomes = append(rep.Outcomes, FileOutcome{Name: t.Name, Attempted: true, Status: resp.Status, Err: err})
				continue
			}
			rep.Outcomes = append(rep.Outcomes, FileOutcome{Name: t.Name, Attempted: true, OK: true, Status: resp.Status})
			c.logger.Info("Restored file",
				zap.String("file", t.Name),
				zap.String("saved_as", saveAs),
				zap.Int("bytes", len(resp.Payload)),
			)
		case protocol.StatusNotFound, protocol.StatusServerErr, protocol.StatusNoFiles:
			rep.Outcomes = append(rep.Outcomes, FileOutcome{
				Name: t.Name, Attempted: true, Status: resp.Status,
				Err: &protocol.StatusError{Status: resp.Status},
			})
			c.logger.Warn("Restore failed for file", zap.String("file", t.Name), zap.Stringer("status", resp.Status))
		default:
			err := fmt.Errorf("%w: status %s does not answer a restore request", protocol.ErrMalformed, resp.Status)
			rep.Outcomes = append(rep.Outcomes, FileOutcome{Name: t.Name, Attempted: true, Err: err})
			rep.Err = err
		}
	}

	s.finish(rep.OK())
	c.observeReport(rep, start)
	return rep, rep.Err
}

// RestoreAll restores names under their stored names.
func (c *Client) RestoreAll(ctx context.Context, names []string) (*Report, error) {
	targets := make([]RestoreTarget, len(names))
	for i, n := range names {
		targets[i] = RestoreTarget{Name: n}
	}
	return c.Restore(ctx, targets)
}

// Delete removes the given stored files in order, with the same per-file
// failure model as Backup and Restore.
func (c *Client) Delete(ctx context.Context, names []string) (*Report, error) {
	start := time.Now()
	rep := &Report{Op: OpDelete}

	s, err := c.connect(ctx, OpDelete)
	if err != nil {
		rep.Err = err
		for _, n := range names {
			rep.Outcomes = append(rep.Outcomes, FileOutcome{Name: n})
		}
		c.observeReport(rep, start)
		return rep, err
	}

	for _, name := range names {
		if rep.Err != nil {
			rep.Outcomes = append(rep.Outcomes, FileOutcome{Name: name})
			continue
		}

		resp, err := s.roundTrip(s.request(protocol.ReqDelete, name), nil)
		if err != nil {
			rep.Outcomes = append(rep.Outcomes, FileOutcome{Name: name, Attempted: true, Err: err})
			rep.Err = err
			continue
		}
		out, err := c.ackOutcome(rep.Op, name, resp)
		rep.Outcomes = append(rep.Outcomes, out)
		if err != nil {
			rep.Err = err
		}
	}

	s.finish(rep.OK())
	c.observeReport(rep, start)
	return rep, rep.Err
}

// ackOutcome maps a confirmation-style response (backup, delete) onto one
// file's outcome. A success status that carries a payload cannot answer
// either request; that is a malformed exchange and the returned error aborts
// the batch.
func (c *Client) ackOutcome(op Op, name string, resp *protocol.Response) (FileOutcome, error) {
	switch {
	case resp.Status == protocol.StatusNoPayload:
		return FileOutcome{Name: name, Attempted: true, OK: true, Status: resp.Status}, nil
	case resp.Status.OK():
		err := fmt.Errorf("%w: status %s does not answer a %s request", protocol.ErrMalformed, resp.Status, op)
		return FileOutcome{Name: name, Attempted: true, Err: err}, err
	default:
		c.logger.Warn("Server rejected file",
			zap.String("file", name),
			zap.Stringer("status", resp.Status),
		)
		return FileOutcome{
			Name: name, Attempted: true, Status: resp.Status,
			Err: &protocol.StatusError{Status: resp.Status},
		}, nil
	}
}

func (c *Client) observeReport(rep *Report, start time.Time) {
	c.collector.ObserveOp(string(rep.Op), rep.OK(), time.Since(start))
	for _, o := range rep.Outcomes {
		c.collector.ObserveFile(string(rep.Op), o.Reason())
	}
	if rep.Err != nil {
		c.logger.Error("Operation aborted",
			zap.String("op", string(rep.Op)),
			zap.Error(rep.Err),
		)
	}
}
