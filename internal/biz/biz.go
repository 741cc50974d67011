package biz

import (
	"github.com/anthropics/telegram-neurocat/internal/biz/usecase"
)

// Usecases contains all usecases
type Usecases struct {
	Moderator *usecase.ModeratorUsecase
	Interest  *usecase.InterestUsecase
	WebSearch *usecase.WebSearchUsecase
	Responder *usecase.ResponderUsecase
	Pipeline  *usecase.PipelineUsecase
}
