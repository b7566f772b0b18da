package service

import (
	"context"
	"time"

	"github.com/haierkeys/note-chain-service/internal/domain"
	"github.com/haierkeys/note-chain-service/pkg/logger"

	"go.uber.org/zap"
)

// CheckIntegrity audits every chain and logs each issue, nothing is repaired
// CheckIntegrity 检查所有版本链并记录问题，不做修复
func (s *noteService) CheckIntegrity(ctx context.Context) ([]domain.IntegrityIssue, error) {
	start := time.Now()

	issues, err := s.repo.CheckIntegrity(ctx)
	err = toCodeError(err, false)
	s.finish(ctx, OpCheckIntegrity, start, err, zap.Int("issues", len(issues)))
	if err != nil {
		return nil, err
	}

	lg := logger.Ctx(ctx, s.logger)
	for _, issue := range issues {
		lg.Warn("version chain integrity issue",
			zap.Int64(logger.FieldNoteID, issue.NoteID),
			zap.String("kind", string(issue.Kind)),
			zap.String("detail", issue.Detail))
	}
	return issues, nil
}
