package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Xiaomckedou233/XiaoLive/internal/core/domain"
	"github.com/Xiaomckedou233/XiaoLive/internal/core/ports"
	apperrors "github.com/Xiaomckedou233/XiaoLive/pkg/errors"
	"github.com/Xiaomckedou233/XiaoLive/pkg/utils"
	"github.com/Xiaomckedou233/XiaoLive/pkg/validation"
)

// Options carries the tunables of the chat core.
type Options struct {
	// PageSize is the number of messages returned per getMessage page.
	PageSize int
	// DanmakuLimit caps how many stored messages the overlay list scans.
	DanmakuLimit int
	// MuteUnit is the span of one requested mute duration unit.
	MuteUnit time.Duration
}

type chatService struct {
	users     ports.UserRepository
	messages  ports.MessageRepository
	broadcast ports.Broadcaster
	opts      Options
	userLocks *keyedMutex
	logger    *zap.SugaredLogger

	// publishMu spans persist plus broadcast so sessions receive messages
	// in storage-commit order.
	publishMu sync.Mutex
}

// NewChatService wires the chat core over the storage ports and a
// broadcaster.
func NewChatService(
	users ports.UserRepository,
	messages ports.MessageRepository,
	broadcast ports.Broadcaster,
	opts Options,
	logger *zap.SugaredLogger,
) ports.ChatService {
	return &chatService{
		users:     users,
		messages:  messages,
		broadcast: broadcast,
		opts:      opts,
		userLocks: newKeyedMutex(),
		logger:    logger,
	}
}

func (s *chatService) CheckBan(ctx context.Context, ip string) (domain.BanStatus, error) {
	user, err := s.users.GetByIP(ctx, ip)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.BanStatus{}, nil
	}
	if err != nil {
		return domain.BanStatus{}, fmt.Errorf("failed to look up ban status: %w", err)
	}
	if user.IsBanned() {
		return domain.BanStatus{Banned: true, Reason: *user.BannedReason}, nil
	}
	return domain.BanStatus{}, nil
}

func (s *chatService) Login(ctx context.Context, username, ip string) error {
	if err := validation.ValidateUsername(username); err != nil {
		return apperrors.NewInvalidInputError(err.Error())
	}

	ban, err := s.CheckBan(ctx, ip)
	if err != nil {
		return err
	}
	if ban.Banned {
		return apperrors.NewBannedError(ban.Reason)
	}

	unlock := s.userLocks.Lock(username)
	defer unlock()

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if existing != nil {
		if existing.IsBanned() {
			return apperrors.NewBannedError(*existing.BannedReason)
		}
		if existing.IP != "" && existing.IP != ip {
			return apperrors.NewConflictError("username is already in use from another address")
		}
		existing.IP = ip
		if err := s.users.Save(ctx, existing); err != nil {
			return fmt.Errorf("failed to refresh user binding: %w", err)
		}
		s.logger.Infow("user logged in", "username", username, "ip", ip)
		return nil
	}

	user := &domain.User{
		Username: username,
		IP:       ip,
	}
	if err := s.users.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Infow("user registered", "username", username, "ip", ip)
	return nil
}

func (s *chatService) GetMessages(ctx context.Context, ip string, before *time.Time) ([]*domain.Message, error) {
	ban, err := s.CheckBan(ctx, ip)
	if err != nil {
		return nil, err
	}
	if ban.Banned {
		return nil, apperrors.NewBannedError(ban.Reason)
	}

	messages, err := s.messages.List(ctx, s.opts.PageSize, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

func (s *chatService) SendMessage(ctx context.Context, content, sender string, color, msgType *string) (*domain.Message, error) {
	if err := validation.ValidateContent(content); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if err := validation.ValidateUsername(sender); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	user, err := s.users.GetByUsername(ctx, sender)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to load sender: %w", err)
	}

	now := utils.Now()
	if user.IsBanned() {
		return nil, apperrors.NewBannedError(*user.BannedReason)
	}
	if user.IsMuted(now) {
		return nil, apperrors.NewMutedError()
	}

	msg := &domain.Message{
		ID:        utils.GenerateMessageID(),
		Content:   content,
		Sender:    sender,
		IsAdmin:   user != nil && user.IsAdmin,
		Time:      nil, // chat messages are not danmaku-timed
		Color:     color,
		Type:      msgType,
		Timestamp: now,
	}

	if err := s.publish(ctx, msg); err != nil {
		return nil, err
	}

	return msg, nil
}

func (s *chatService) MuteUser(ctx context.Context, executor, username string, durationUnits int) error {
	if err := validation.ValidateDuration(durationUnits); err != nil {
		return apperrors.NewInvalidInputError(err.Error())
	}
	if err := s.requireAdmin(ctx, executor); err != nil {
		return err
	}

	unlock := s.userLocks.Lock(username)
	defer unlock()

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return apperrors.NewNotFoundError("user")
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	until := utils.Now().Add(time.Duration(durationUnits) * s.opts.MuteUnit)
	user.MutedUntil = &until
	if err := s.users.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to mute user: %w", err)
	}

	s.logger.Infow("user muted",
		"username", username,
		"executor", executor,
		"muted_until", until,
	)
	return nil
}

func (s *chatService) CheckAdminStatus(ctx context.Context, username, ip string) (bool, error) {
	byName, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load user: %w", err)
	}

	byIP, err := s.users.GetByIP(ctx, ip)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load user by ip: %w", err)
	}

	// Admin is only confirmed for the connected identity, never for an
	// arbitrary name.
	if byName.Username != byIP.Username {
		return false, nil
	}
	return byName.IsAdmin, nil
}

func (s *chatService) BanUser(ctx context.Context, executor, username, reason string) error {
	if err := validation.ValidateReason(reason); err != nil {
		return apperrors.NewInvalidInputError(err.Error())
	}
	if err := s.requireAdmin(ctx, executor); err != nil {
		return err
	}

	unlock := s.userLocks.Lock(username)
	defer unlock()

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return apperrors.NewNotFoundError("user")
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	user.BannedReason = &reason
	if err := s.users.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to ban user: %w", err)
	}
	s.broadcast.BroadcastBan(username, reason)

	s.logger.Infow("user banned",
		"username", username,
		"executor", executor,
		"reason", reason,
	)
	return nil
}

func (s *chatService) AddAdmin(ctx context.Context, username, ip string) (*domain.User, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	unlock := s.userLocks.Lock(username)
	defer unlock()

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		user = &domain.User{Username: username}
	} else if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	user.IsAdmin = true
	user.IP = ip
	if err := s.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save admin: %w", err)
	}

	s.logger.Infow("admin granted", "username", username, "ip", ip)
	return user, nil
}

func (s *chatService) UnbanUser(ctx context.Context, username string) error {
	unlock := s.userLocks.Lock(username)
	defer unlock()

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return apperrors.NewNotFoundError("user")
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	user.BannedReason = nil
	if err := s.users.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to unban user: %w", err)
	}

	s.logger.Infow("user unbanned", "username", username)
	return nil
}

func (s *chatService) SubmitDanmaku(ctx context.Context, sub ports.DanmakuSubmission, ip string) (*domain.Message, error) {
	if err := validation.ValidateContent(sub.Text); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	// A bound user overrides the supplied author identity.
	sender := sub.Author
	isAdmin := false
	user, err := s.users.GetByIP(ctx, ip)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to resolve sender: %w", err)
	}
	if user != nil {
		sender = user.Username
		isAdmin = user.IsAdmin
	}

	id := sub.ID
	if id == "" {
		id = utils.GenerateMessageID()
	}

	msg := &domain.Message{
		ID:        id,
		Content:   sub.Text,
		Sender:    sender,
		IsAdmin:   isAdmin,
		Time:      sub.Time,
		Color:     sub.Color,
		Type:      sub.Type,
		Timestamp: utils.Now(),
	}

	if err := s.publish(ctx, msg); err != nil {
		return nil, err
	}

	return msg, nil
}

// publish stores a message and broadcasts it. Persist comes first; a message
// that fails to store is never broadcast. The mutex keeps concurrent
// publishes from reordering between commit and fan-out, so broadcast order
// matches the repository's insertion sequence.
func (s *chatService) publish(ctx context.Context, msg *domain.Message) error {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	if err := s.messages.Save(ctx, msg); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	s.broadcast.BroadcastNewMessage(msg)
	return nil
}

func (s *chatService) ListDanmaku(ctx context.Context) ([]domain.DanmakuEntry, error) {
	messages, err := s.messages.List(ctx, s.opts.DanmakuLimit, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list danmaku: %w", err)
	}

	entries := make([]domain.DanmakuEntry, 0, len(messages))
	for _, msg := range messages {
		if !msg.IsDanmaku() {
			continue
		}
		entries = append(entries, msg.ToDanmaku())
	}
	return entries, nil
}

// requireAdmin reloads the executor's record and checks the admin flag. A
// client-supplied admin flag is never trusted.
func (s *chatService) requireAdmin(ctx context.Context, executor string) error {
	admin, err := s.users.GetByUsername(ctx, executor)
	if errors.Is(err, domain.ErrUserNotFound) {
		return apperrors.NewForbiddenError("not authorized")
	}
	if err != nil {
		return fmt.Errorf("failed to load executor: %w", err)
	}
	if !admin.IsAdmin {
		return apperrors.NewForbiddenError("not authorized")
	}
	return nil
}
