package bot

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"whatevereat/internal/command"
	"whatevereat/internal/engine"
	"whatevereat/internal/observability"
)

const (
	msgNoSession = "😶 我還不知道您在哪裡！\n請先傳送您的位置，我才能幫您找附近的餐廳。"

	msgNoCandidates    = "😔 這附近找不到餐廳，換個地點再試試？"
	msgResolverTrouble = "😵 餐廳搜尋服務暫時有狀況，請稍後再試。"

	msgInvalidLocation = "🤔 這個位置座標怪怪的，請重新傳送一次位置。"

	msgCleared = "🗑️ 已清除您的位置與推薦記錄。"

	msgUnknown = "🤖 我不太懂這句話。輸入「抽餐廳」讓我推薦，或輸入「幫助」看所有指令。"

	msgInternal = "抱歉，處理時發生錯誤，請稍後再試。"
)

// Dispatcher turns channel-neutral events into engine calls and formats
// the replies. It owns all user-facing phrasing so every failure maps to
// a distinct message instead of a silent no-op.
type Dispatcher struct {
	engine  *engine.Engine
	parser  *command.Parser
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewDispatcher(eng *engine.Engine, metrics *observability.Metrics, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		engine:  eng,
		parser:  command.NewParser(),
		metrics: metrics,
		logger:  logger,
	}
}

// Handle processes one inbound event and always returns a reply.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) Reply {
	switch ev.Type {
	case EventLocation:
		return d.handleLocation(ctx, ev)
	case EventText:
		return d.handleText(ctx, ev)
	default:
		return Reply{Text: msgUnknown}
	}
}

func (d *Dispatcher) handleLocation(ctx context.Context, ev Event) Reply {
	err := d.engine.SetLocation(ctx, ev.UserID, ev.Coordinate, ev.Title, ev.Address)
	if errors.Is(err, engine.ErrInvalidCoordinate) {
		return Reply{Text: msgInvalidLocation}
	}
	if err != nil {
		d.logger.Error("set location failed", zap.String("user", ev.UserID), zap.Error(err))
		return Reply{Text: msgInternal}
	}

	// The original bot answered a location share with a pick right away;
	// keep that instead of making the user type a command first.
	confirm := formatLocationConfirm(ev.Title, ev.Address)
	rec, err := d.recommend(ctx, ev.UserID)
	if err != nil {
		return Reply{Text: confirm + "\n\n" + d.failureMessage(ev.UserID, err)}
	}
	return Reply{Text: confirm + "\n\n" + formatRecommendation(rec)}
}

func (d *Dispatcher) handleText(ctx context.Context, ev Event) Reply {
	cmd := d.parser.Parse(ev.Text)
	switch cmd.Type {
	case command.TypeRecommend:
		rec, err := d.recommend(ctx, ev.UserID)
		if err != nil {
			return Reply{Text: d.failureMessage(ev.UserID, err)}
		}
		return Reply{Text: formatRecommendation(rec)}

	case command.TypeStatus:
		st, err := d.engine.Status(ctx, ev.UserID)
		if err != nil {
			d.logger.Error("status failed", zap.String("user", ev.UserID), zap.Error(err))
			return Reply{Text: msgInternal}
		}
		return Reply{Text: formatStatus(st)}

	case command.TypeClear:
		if err := d.engine.Clear(ctx, ev.UserID); err != nil {
			d.logger.Error("clear failed", zap.String("user", ev.UserID), zap.Error(err))
			return Reply{Text: msgInternal}
		}
		return Reply{Text: msgCleared}

	case command.TypeHelp:
		return Reply{Text: command.HelpText()}

	default:
		return Reply{Text: msgUnknown}
	}
}

func (d *Dispatcher) recommend(ctx context.Context, userID string) (*engine.Recommendation, error) {
	rec, err := d.engine.Recommend(ctx, userID)
	if err != nil {
		return nil, err
	}
	if d.metrics != nil {
		outcome := "ok"
		if rec.RotationReset {
			outcome = "rotation_reset"
		}
		d.metrics.Recommendations.WithLabelValues(outcome).Inc()
	}
	return rec, nil
}

func (d *Dispatcher) failureMessage(userID string, err error) string {
	var nce *engine.NoCandidatesError
	switch {
	case errors.Is(err, engine.ErrNoActiveSession):
		d.count("no_session")
		return msgNoSession
	case errors.As(err, &nce):
		if nce.Cause == engine.CauseEmptyResult {
			d.count("no_candidates")
			return msgNoCandidates
		}
		d.count("resolver_failure")
		d.logger.Warn("resolver failure",
			zap.String("user", userID),
			zap.String("cause", string(nce.Cause)),
			zap.Error(nce.Err))
		return msgResolverTrouble
	default:
		d.count("error")
		d.logger.Error("recommend failed", zap.String("user", userID), zap.Error(err))
		return msgInternal
	}
}

func (d *Dispatcher) count(outcome string) {
	if d.metrics != nil {
		d.metrics.Recommendations.WithLabelValues(outcome).Inc()
	}
}
