package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/AnshRaj112/mindsoothe-backend/internal/logging"
	"github.com/AnshRaj112/mindsoothe-backend/internal/models"
)

const (
	MinJournalLength = 10
	MaxJournalLength = 500

	CrisisMessage   = "We detected crisis-related content. Please reach out to a local helpline immediately. In the US, call 988 for the Suicide & Crisis Lifeline."
	ModerateMessage = "I noticed your entry contains some intense emotions. While I can't provide specific feedback on this content, please remember that support is available if you need it."

	msgTextRequired      = "Journal text is required and must be a string"
	msgTextTooLong       = "Journal entry must be 500 characters or less"
	msgTextTooShort      = "Journal entry must be at least 10 characters long"
	msgNotConfigured     = "AI service is not configured. Please add your OpenAI API key."
	msgStoreMissing      = "Journal storage is not configured."
	msgModerationDown    = "Content moderation service unavailable, please try again later."
	msgGenerationDown    = "AI service unavailable, please try again later."
	msgGenerationEmpty   = "AI service returned an empty or malformed response, please try again."
	msgPersistenceFailed = "Unable to save journal entry"

	crisisMood       = "Crisis"
	crisisReflection = "Crisis content detected"
)

var crisisSuggestions = []string{
	"Contact emergency services",
	"Call crisis helpline",
	"Reach out to trusted person",
}

// SubmitResult is what a successful submission returns. Entry is set for a
// full reflection; urgent and moderate notices carry only Severity and Message.
type SubmitResult struct {
	Severity models.Severity
	Message  string
	Entry    *models.JournalEntry
}

type JournalServiceConfig struct {
	Moderator Moderator
	Reflector Reflector
	Store     JournalStore
	Logger    *zap.Logger

	ModerationTimeout time.Duration
	GenerationTimeout time.Duration
	StoreTimeout      time.Duration
}

// JournalService runs the submission pipeline:
// validate → configuration check → moderate → crisis → reflect → persist.
type JournalService struct {
	moderator Moderator
	reflector Reflector
	store     JournalStore
	logger    *zap.Logger

	moderationTimeout time.Duration
	generationTimeout time.Duration
	storeTimeout      time.Duration
}

// NewJournalService builds the pipeline. Moderator and Reflector may be nil
// when no API key is configured; submissions then fail with ErrConfiguration.
func NewJournalService(cfg JournalServiceConfig) *JournalService {
	s := &JournalService{
		moderator:         cfg.Moderator,
		reflector:         cfg.Reflector,
		store:             cfg.Store,
		logger:            cfg.Logger,
		moderationTimeout: cfg.ModerationTimeout,
		generationTimeout: cfg.GenerationTimeout,
		storeTimeout:      cfg.StoreTimeout,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.moderationTimeout <= 0 {
		s.moderationTimeout = 10 * time.Second
	}
	if s.generationTimeout <= 0 {
		s.generationTimeout = 30 * time.Second
	}
	if s.storeTimeout <= 0 {
		s.storeTimeout = 5 * time.Second
	}
	return s
}

// ValidateJournalText checks raw length first, then trimmed length.
// Lengths are counted in runes.
func ValidateJournalText(text string) error {
	if text == "" {
		return newValidationError(msgTextRequired)
	}
	if utf8.RuneCountInString(text) > MaxJournalLength {
		return newValidationError(msgTextTooLong)
	}
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinJournalLength {
		return newValidationError(msgTextTooShort)
	}
	return nil
}

type stageOutcome int

const (
	stageContinue stageOutcome = iota
	stageRespond
	stageFail
)

type stageResult struct {
	outcome stageOutcome
	result  SubmitResult
	err     error
}

func proceed() stageResult                { return stageResult{outcome: stageContinue} }
func respond(r SubmitResult) stageResult { return stageResult{outcome: stageRespond, result: r} }
func fail(err error) stageResult         { return stageResult{outcome: stageFail, err: err} }

// submission is the state handed from stage to stage.
type submission struct {
	text       string
	verdict    ModerationVerdict
	reflection Reflection
}

type stage struct {
	name string
	run  func(ctx context.Context, sub *submission) stageResult
}

func (s *JournalService) stages() []stage {
	return []stage{
		{"validate", s.validate},
		{"configuration", s.checkConfiguration},
		{"moderation", s.moderate},
		{"crisis", s.recordCrisis},
		{"reflection", s.reflect},
		{"persistence", s.persist},
	}
}

// Submit runs text through the pipeline. Errors are *PipelineError values.
func (s *JournalService) Submit(ctx context.Context, text string) (SubmitResult, error) {
	sub := &submission{text: text}
	log := s.log(ctx)

	for _, st := range s.stages() {
		res := st.run(ctx, sub)
		switch res.outcome {
		case stageRespond:
			log.Debug("journal submission finished", zap.String("stage", st.name), zap.String("severity", string(res.result.Severity)))
			return res.result, nil
		case stageFail:
			log.Debug("journal submission failed", zap.String("stage", st.name), zap.Error(res.err))
			return SubmitResult{}, res.err
		}
	}
	return SubmitResult{}, errors.New("journal pipeline ended without a response")
}

// Recent returns the newest entries for the history view.
func (s *JournalService) Recent(ctx context.Context, limit int) ([]models.JournalEntry, error) {
	if s.store == nil {
		return nil, &PipelineError{Kind: ErrConfiguration, Message: msgStoreMissing}
	}
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.Recent(ctx, limit)
}

func (s *JournalService) validate(_ context.Context, sub *submission) stageResult {
	if err := ValidateJournalText(sub.text); err != nil {
		return fail(err)
	}
	return proceed()
}

func (s *JournalService) checkConfiguration(_ context.Context, _ *submission) stageResult {
	if s.moderator == nil || s.reflector == nil {
		return fail(&PipelineError{Kind: ErrConfiguration, Message: msgNotConfigured})
	}
	if s.store == nil {
		return fail(&PipelineError{Kind: ErrConfiguration, Message: msgStoreMissing})
	}
	return proceed()
}

func (s *JournalService) moderate(ctx context.Context, sub *submission) stageResult {
	ctx, cancel := context.WithTimeout(ctx, s.moderationTimeout)
	defer cancel()

	verdict, err := s.moderator.Moderate(ctx, sub.text)
	if err != nil {
		s.log(ctx).Error("moderation request failed", zap.Error(err))
		return fail(newUnavailableError(msgModerationDown, err))
	}
	sub.verdict = verdict

	if verdict == VerdictModerate {
		return respond(SubmitResult{Severity: models.SeverityModerate, Message: ModerateMessage})
	}
	return proceed()
}

// recordCrisis stores an urgent entry and always returns the crisis notice,
// even when the store write fails.
func (s *JournalService) recordCrisis(ctx context.Context, sub *submission) stageResult {
	if sub.verdict != VerdictCrisis {
		return proceed()
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	_, err := s.store.Insert(storeCtx, models.JournalEntry{
		Text:        sub.text,
		Mood:        crisisMood,
		Reflection:  crisisReflection,
		Suggestions: append([]string(nil), crisisSuggestions...),
		Severity:    models.SeverityUrgent,
	})
	if err != nil {
		s.log(ctx).Error("failed to save urgent entry", zap.Error(err))
	}
	return respond(SubmitResult{Severity: models.SeverityUrgent, Message: CrisisMessage})
}

func (s *JournalService) reflect(ctx context.Context, sub *submission) stageResult {
	ctx, cancel := context.WithTimeout(ctx, s.generationTimeout)
	defer cancel()

	res, err := s.reflector.Reflect(ctx, sub.text)
	if errors.Is(err, ErrEmptyCompletion) {
		s.log(ctx).Error("completion returned no content")
		return fail(newUnavailableError(msgGenerationEmpty, err))
	}
	if err != nil {
		s.log(ctx).Error("completion request failed", zap.Error(err))
		return fail(newUnavailableError(msgGenerationDown, err))
	}

	switch r := res.(type) {
	case DecodedReflection:
		if r.ReportedSeverity != "" && r.ReportedSeverity != string(models.SeverityNone) {
			s.log(ctx).Warn("ignoring severity from completion", zap.String("severity", r.ReportedSeverity))
		}
		sub.reflection = r.Reflection
	case MalformedReflection:
		s.log(ctx).Warn("completion did not match reflection schema, using fallback",
			zap.Error(r.Reason), zap.Int("content_len", len(r.Raw)))
		sub.reflection = FallbackReflection()
	default:
		s.log(ctx).Warn("unknown reflection result, using fallback")
		sub.reflection = FallbackReflection()
	}
	return proceed()
}

func (s *JournalService) persist(ctx context.Context, sub *submission) stageResult {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	saved, err := s.store.Insert(ctx, models.JournalEntry{
		Text:        sub.text,
		Mood:        sub.reflection.Mood,
		Reflection:  sub.reflection.Reflection,
		Suggestions: sub.reflection.Suggestions,
		Severity:    sub.reflection.Severity,
	})
	if err != nil {
		s.log(ctx).Error("database save error", zap.Error(err))
		return fail(&PipelineError{Kind: ErrPersistence, Message: msgPersistenceFailed, Err: err})
	}
	return respond(SubmitResult{Severity: saved.Severity, Entry: &saved})
}

func (s *JournalService) log(ctx context.Context) *zap.Logger {
	return logging.FromContext(ctx, s.logger)
}
