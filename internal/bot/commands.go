package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/yndnr/filegate/internal/core/domain"
	"github.com/yndnr/filegate/internal/core/service"
	"github.com/yndnr/filegate/internal/telemetry/logger"
	"github.com/yndnr/filegate/pkg/deeplink"
)

var htmlOpts = domain.SendOptions{HTML: true}

// onStart registers the user, runs the gate and then either shows the
// start message or delivers the linked content.
func (b *Bot) onStart(ctx context.Context, m *Message, payload string) error {
	uid := m.From.ID

	created, err := b.users.Register(ctx, uid)
	if err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	if created {
		tok, err := b.issue(ctx, uid)
		if err != nil {
			return err
		}
		if _, err := b.msg.Send(ctx, m.ChatID, fmt.Sprintf(textWelcome, html.EscapeString(tok)), htmlOpts); err != nil {
			return err
		}
	}

	decision, err := b.gate.Evaluate(ctx, uid)
	if err != nil {
		b.metrics.RecordGateDecision("error")
		return fmt.Errorf("gate: %w", err)
	}
	b.metrics.RecordGateDecision(decision.String())

	switch decision {
	case service.GateJoinRequired:
		return b.askToJoin(ctx, m, payload)
	case service.GateTokenRequired:
		_, err := b.msg.Send(ctx, m.ChatID, textTokenRequired, domain.SendOptions{})
		return err
	}

	if payload == "" {
		return b.sendStart(ctx, m)
	}
	return b.deliver(ctx, m, payload)
}

func (b *Bot) sendStart(ctx context.Context, m *Message) error {
	row := []domain.Button{{Text: btnAbout, Data: CbAbout}}
	if b.unlockURL != "" {
		row = append(row, domain.Button{Text: btnUnlock, URL: b.unlockURL})
	}
	kb := domain.Keyboard{row, {{Text: btnStop, Data: CbStopProcess}}}

	_, err := b.msg.Send(ctx, m.ChatID, Render(b.Templates().Start, m.From), domain.SendOptions{
		HTML:           true,
		Keyboard:       kb,
		ReplyTo:        m.ID,
		DisablePreview: true,
	})
	return err
}

// askToJoin sends the force-subscribe prompt. With a payload it adds a
// button that replays the same deep link.
func (b *Bot) askToJoin(ctx context.Context, m *Message, payload string) error {
	link, err := b.msg.InviteLink(ctx, b.channelID)
	if err != nil {
		return fmt.Errorf("invite link: %w", err)
	}
	kb := domain.Keyboard{{{Text: btnJoin, URL: link}}}
	if payload != "" {
		kb = append(kb, []domain.Button{{Text: btnTryAgain, URL: deeplink.URL(b.msg.Username(), payload)}})
	}

	_, err = b.msg.Send(ctx, m.ChatID, Render(b.Templates().Force, m.From), domain.SendOptions{
		HTML:           true,
		Keyboard:       kb,
		ReplyTo:        m.ID,
		DisablePreview: true,
	})
	return err
}

// deliver resolves the payload and copies the addressed messages to the user.
func (b *Bot) deliver(ctx context.Context, m *Message, payload string) error {
	ids, err := b.delivery.Resolve(payload)
	if err != nil {
		logger.L(ctx).Info("rejected start link", "error", err)
		_, err := b.msg.Send(ctx, m.ChatID, textInvalidLink, domain.SendOptions{ReplyTo: m.ID})
		return err
	}

	wait, err := b.msg.Send(ctx, m.ChatID, textPleaseWait, domain.SendOptions{})
	if err != nil {
		return err
	}
	msgs, err := b.delivery.Fetch(ctx, ids)
	b.deleteQuietly(ctx, domain.MessageRef{ChatID: m.ChatID, MessageID: wait})
	if err != nil {
		logger.L(ctx).Warn("fetch failed", "ids", len(ids), "error", err)
		_, err := b.msg.Send(ctx, m.ChatID, textWentWrong, domain.SendOptions{})
		return err
	}
	if len(msgs) == 0 {
		_, err := b.msg.Send(ctx, m.ChatID, textNothingFound, domain.SendOptions{})
		return err
	}

	report, err := b.delivery.Deliver(ctx, m.From.ID, msgs)
	b.metrics.RecordDelivery("delivered", report.Delivered)
	b.metrics.RecordDelivery("failed", report.Failed)
	logger.L(ctx).Info("delivered",
		"total", report.Total,
		"delivered", report.Delivered,
		"failed", report.Failed,
		"stopped", report.Stopped,
	)
	return err
}

// onCheck reports the token status, issuing a new token when there is no
// valid one.
func (b *Bot) onCheck(ctx context.Context, m *Message) error {
	uid := m.From.ID

	created, err := b.users.Register(ctx, uid)
	if err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	if created {
		return b.reissue(ctx, m, textNotConnected)
	}

	rec, state, err := b.tokens.Status(ctx, uid)
	if err != nil {
		return err
	}
	if state != domain.StateIssued {
		return b.reissue(ctx, m, textNoValidToken)
	}

	u := m.From
	username := "not set"
	if u.Username != "" {
		username = "@" + u.Username
	}
	remaining := rec.Remaining(b.tokens.Now()).Truncate(time.Second)
	text := fmt.Sprintf(textTokenStatus,
		html.EscapeString(rec.Token),
		u.ID,
		html.EscapeString(u.FirstName),
		html.EscapeString(u.LastName),
		html.EscapeString(username),
		remaining,
	)
	_, err = b.msg.Send(ctx, m.ChatID, text, htmlOpts)
	return err
}

func (b *Bot) reissue(ctx context.Context, m *Message, format string) error {
	tok, err := b.issue(ctx, m.From.ID)
	if err != nil {
		return err
	}
	_, err = b.msg.Send(ctx, m.ChatID, fmt.Sprintf(format, html.EscapeString(tok)), htmlOpts)
	return err
}

func (b *Bot) issue(ctx context.Context, uid int64) (string, error) {
	tok, err := b.tokens.Generate(ctx, uid)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	b.metrics.IncTokenIssued()
	return tok, nil
}

// onToken claims a pre-minted token for the user.
func (b *Bot) onToken(ctx context.Context, m *Message, value string) error {
	uid := m.From.ID

	valid, err := b.tokens.HasValid(ctx, uid)
	if err != nil {
		return err
	}
	text := textTokenUsage
	switch {
	case valid:
		text = textAlreadyValid
	case value != "":
		err := b.tokens.Claim(ctx, uid, value)
		switch {
		case errors.Is(err, domain.ErrTokenInvalid):
			text = textTokenInvalid
		case err != nil:
			return fmt.Errorf("claim token: %w", err)
		default:
			b.metrics.IncTokenClaimed()
			if _, err := b.users.Register(ctx, uid); err != nil {
				return fmt.Errorf("register user: %w", err)
			}
			text = textTokenAccepted
		}
	}
	_, err = b.msg.Send(ctx, m.ChatID, text, domain.SendOptions{})
	return err
}

func (b *Bot) onUsers(ctx context.Context, m *Message) error {
	wait, err := b.msg.Send(ctx, m.ChatID, textWait, htmlOpts)
	if err != nil {
		return err
	}
	n, err := b.users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	return b.msg.Edit(ctx, domain.MessageRef{ChatID: m.ChatID, MessageID: wait}, fmt.Sprintf(textUsers, n), domain.SendOptions{})
}

// onBroadcast copies the replied-to message to every user and edits the
// progress message into the final report.
func (b *Bot) onBroadcast(ctx context.Context, m *Message) error {
	if m.ReplyTo == nil {
		id, err := b.msg.Send(ctx, m.ChatID, textReplyError, htmlOpts)
		if err != nil {
			return err
		}
		ref := domain.MessageRef{ChatID: m.ChatID, MessageID: id}
		dctx := context.WithoutCancel(ctx)
		b.after(b.replyErrorTTL, func() { b.deleteQuietly(dctx, ref) })
		return nil
	}

	progress, err := b.msg.Send(ctx, m.ChatID, textBroadcasting, domain.SendOptions{HTML: true, ReplyTo: m.ID})
	if err != nil {
		return err
	}

	b.metrics.BroadcastsInFlight.Inc()
	report, berr := b.broadcast.Broadcast(ctx, *m.ReplyTo)
	b.metrics.BroadcastsInFlight.Dec()

	b.metrics.RecordBroadcast("successful", report.Successful)
	b.metrics.RecordBroadcast("blocked", report.Blocked)
	b.metrics.RecordBroadcast("deleted", report.Deleted)
	b.metrics.RecordBroadcast("unsuccessful", report.Unsuccessful)
	logger.L(ctx).Info("broadcast finished",
		"total", report.Total,
		"successful", report.Successful,
		"blocked", report.Blocked,
		"deleted", report.Deleted,
		"unsuccessful", report.Unsuccessful,
	)

	text := fmt.Sprintf(textBroadcastDone, report.Total, report.Successful, report.Blocked, report.Deleted, report.Unsuccessful)
	if berr != nil {
		text += fmt.Sprintf(textBroadcastAbort, html.EscapeString(berr.Error()))
	}
	if err := b.msg.Edit(ctx, domain.MessageRef{ChatID: m.ChatID, MessageID: progress}, text, htmlOpts); err != nil {
		return err
	}
	if berr != nil {
		return fmt.Errorf("broadcast: %w", berr)
	}
	return nil
}

// onAbout turns the start message into the about text.
func (b *Bot) onAbout(ctx context.Context, cb *Callback) error {
	if err := b.msg.AnswerCallback(ctx, cb.ID, ""); err != nil {
		return err
	}
	if cb.Message == nil {
		return nil
	}
	return b.msg.Edit(ctx, *cb.Message, Render(b.Templates().About, cb.From), domain.SendOptions{
		HTML:           true,
		Keyboard:       domain.Keyboard{{{Text: btnClose, Data: CbClose}}},
		DisablePreview: true,
	})
}

func (b *Bot) deleteQuietly(ctx context.Context, ref domain.MessageRef) {
	if err := b.msg.Delete(ctx, ref); err != nil {
		logger.L(ctx).Debug("delete message", "message_id", ref.MessageID, "error", err)
	}
}
