package service

import (
	"Agora/internal/api/config"
	"Agora/internal/model"
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/llm"
	"Agora/internal/pkg/metrics"
	"Agora/internal/pkg/redis"
	"Agora/internal/pkg/security"
	"Agora/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/singleflight"
)

const (
	OutcomeGenerated  = "generated"
	OutcomeExisting   = "existing"
	OutcomeInProgress = "in_progress"
	OutcomeNotFound   = "not_found"
	OutcomeDisabled   = "disabled"
	OutcomeFailed     = "failed"
)

const (
	DeliveryField   = "field"
	DeliveryComment = "comment"
)

// AugmentResult AI 回答生成结果，Err 仅用于日志
type AugmentResult struct {
	Outcome    string
	AIResponse *string
	CommentID  string
	Err        error
}

type AugmentService interface {
	Enabled() bool
	GenerateForPost(ctx context.Context, postID primitive.ObjectID) *AugmentResult
}

// AugmentDispatcher 异步投递生成任务，不阻塞调用方
type AugmentDispatcher interface {
	Dispatch(ctx context.Context, postID primitive.ObjectID) bool
}

type augmentServiceImpl struct {
	postRepo    repository.PostRepo
	commentRepo repository.CommentRepo
	comments    CommentService
	generator   llm.Generator
	prompts     *llm.PromptBuilder
	sanitizer   *security.TextSanitizer
	recorder    metrics.AugmentRecorder
	cfg         config.AIConfig
	systemID    uint64
	group       singleflight.Group
}

func NewAugmentService(postRepo repository.PostRepo, commentRepo repository.CommentRepo, comments CommentService,
	generator llm.Generator, prompts *llm.PromptBuilder, recorder metrics.AugmentRecorder,
	cfg config.AIConfig, systemID uint64) AugmentService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &augmentServiceImpl{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		comments:    comments,
		generator:   generator,
		prompts:     prompts,
		sanitizer:   security.NewTextSanitizer(),
		recorder:    recorder,
		cfg:         cfg,
		systemID:    systemID,
	}
}

// ResolveSystemAccount 启动时确定 AI 账号 id，账号不存在时返回 0
func ResolveSystemAccount(ctx context.Context, userRepo repository.UserRepo, cfg config.AIConfig) (uint64, error) {
	var (
		user *model.User
		err  error
	)
	if cfg.SystemAccountID != 0 {
		user, err = userRepo.GetUserById(ctx, cfg.SystemAccountID)
	} else {
		user, err = userRepo.GetUserByUsername(ctx, cfg.SystemUsername)
	}
	if err != nil {
		return 0, err
	}
	if user == nil {
		log.WarnContext(ctx, "ai system account not provisioned", "id", cfg.SystemAccountID, "username", cfg.SystemUsername)
		return 0, nil
	}
	return user.ID, nil
}

// ProvisionSystemAccount 创建 AI 账号，已存在时直接返回，created 表示本次是否新建
func ProvisionSystemAccount(ctx context.Context, userRepo repository.UserRepo, username, nickname string) (user *model.User, created bool, err error) {
	if username == "" {
		return nil, false, errors.New("system username is required")
	}
	user, err = userRepo.GetUserByUsername(ctx, username)
	if err != nil || user != nil {
		return user, false, err
	}

	password, err := security.RandomPassword()
	if err != nil {
		return nil, false, err
	}
	hashed, err := security.HashPassword(password)
	if err != nil {
		return nil, false, err
	}
	if nickname == "" {
		nickname = username
	}
	user = &model.User{Username: username, Nickname: nickname, Password: hashed, Role: model.RoleSystem}
	if err = userRepo.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrDuplicateUser) {
			return nil, false, err
		}
		// 并发创建时以已存在的账号为准
		user, err = userRepo.GetUserByUsername(ctx, username)
		return user, false, err
	}
	return user, true, nil
}

func (s *augmentServiceImpl) Enabled() bool {
	return s.generator != nil
}

// GenerateForPost 为帖子生成唯一一次 AI 回答，错误只记录不返回
func (s *augmentServiceImpl) GenerateForPost(ctx context.Context, postID primitive.ObjectID) *AugmentResult {
	start := time.Now()
	v, _, _ := s.group.Do(postID.Hex(), func() (interface{}, error) {
		return s.generate(ctx, postID), nil
	})
	res := v.(*AugmentResult)

	s.recorder.RecordOutcome(res.Outcome)
	s.recorder.RecordLatency(time.Since(start))
	if res.Outcome == OutcomeFailed {
		log.ErrorContext(ctx, "ai augmentation failed", "post_id", postID.Hex(), "err", res.Err)
	} else {
		log.InfoContext(ctx, "ai augmentation finished", "post_id", postID.Hex(), "outcome", res.Outcome)
	}
	return res
}

func (s *augmentServiceImpl) generate(ctx context.Context, postID primitive.ObjectID) *AugmentResult {
	if !s.Enabled() {
		return &AugmentResult{Outcome: OutcomeDisabled}
	}
	// 请求结束不影响生成
	ctx = context.WithoutCancel(ctx)

	post, res := s.check(ctx, postID)
	if res != nil {
		return res
	}

	lockKey := consts.AIGenerateLock + postID.Hex()
	token := uuid.NewString()
	locked, err := redis.TryLock(ctx, lockKey, token, time.Duration(s.cfg.LockSeconds)*time.Second, 1)
	if err != nil {
		return failed(fmt.Errorf("acquire lock: %w", err))
	}
	if !locked {
		return &AugmentResult{Outcome: OutcomeInProgress}
	}
	defer func() {
		if err := redis.UnLock(ctx, lockKey, token); err != nil {
			log.WarnContext(ctx, "failed to release ai lock", "key", lockKey, "err", err)
		}
	}()

	// 持锁后再检查一次，另一实例可能刚写完
	post, res = s.check(ctx, postID)
	if res != nil {
		return res
	}

	text, err := s.callProvider(ctx, post)
	if err != nil {
		return failed(err)
	}

	if s.cfg.Delivery == DeliveryComment {
		return s.deliverComment(ctx, post, text)
	}
	return s.deliverField(ctx, post, text)
}

// check 帖子不存在或已有回答时返回结果
func (s *augmentServiceImpl) check(ctx context.Context, postID primitive.ObjectID) (*model.Post, *AugmentResult) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, failed(err)
	}
	if post == nil {
		return nil, &AugmentResult{Outcome: OutcomeNotFound}
	}
	if post.HasAIResponse() {
		return nil, &AugmentResult{Outcome: OutcomeExisting, AIResponse: post.AIResponse}
	}
	hasComment, err := s.commentRepo.HasAIComment(ctx, model.ContentRef{Kind: model.KindPost, ID: postID})
	if err != nil {
		return nil, failed(err)
	}
	if hasComment {
		return nil, &AugmentResult{Outcome: OutcomeExisting}
	}
	return post, nil
}

func (s *augmentServiceImpl) callProvider(ctx context.Context, post *model.Post) (string, error) {
	category := post.PrimaryCategory()
	system := s.prompts.SystemPrompt(category)
	user := s.prompts.UserPrompt(post.Title, category, post.Tags, post.Content)

	genCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	text, err := s.generator.Generate(genCtx, system, user)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAugmentFailed, err)
	}
	text = s.sanitizer.Sanitize(text)
	if text == "" {
		return "", fmt.Errorf("%w: %w", ErrAugmentFailed, llm.ErrEmptyResponse)
	}
	return text, nil
}

func (s *augmentServiceImpl) deliverField(ctx context.Context, post *model.Post, text string) *AugmentResult {
	written, err := s.postRepo.SetAIResponseIfEmpty(ctx, post.ID, text, time.Now())
	if err != nil {
		return failed(err)
	}
	if !written {
		current, err := s.postRepo.FindByID(ctx, post.ID)
		if err != nil {
			return failed(err)
		}
		if current == nil {
			return &AugmentResult{Outcome: OutcomeNotFound}
		}
		return &AugmentResult{Outcome: OutcomeExisting, AIResponse: current.AIResponse}
	}
	return &AugmentResult{Outcome: OutcomeGenerated, AIResponse: &text}
}

func (s *augmentServiceImpl) deliverComment(ctx context.Context, post *model.Post, text string) *AugmentResult {
	if s.systemID == 0 {
		return failed(errors.New("ai system account not provisioned"))
	}
	comment, err := s.comments.CreateSystemComment(ctx, model.ContentRef{Kind: model.KindPost, ID: post.ID}, s.systemID, text)
	if err != nil {
		if errors.Is(err, ErrParentNotFound) {
			return &AugmentResult{Outcome: OutcomeNotFound}
		}
		return failed(err)
	}
	return &AugmentResult{Outcome: OutcomeGenerated, CommentID: comment.ID.Hex()}
}

func failed(err error) *AugmentResult {
	return &AugmentResult{Outcome: OutcomeFailed, Err: err}
}
