package handler

import (
	"socialex/internal/app/conversation"
	"socialex/internal/app/realtime"
	"socialex/internal/app/user"
	"socialex/internal/configs"
)

// AppDeps carries the services shared by every handler.
type AppDeps struct {
	Hub    *realtime.Hub
	Config *configs.AppConfig
	Users  user.Store
	Convs  conversation.Store
}
