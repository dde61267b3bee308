package chat

import (
	"laundrychat/internal/chat"
	"laundrychat/internal/config"
)

// OptionsFromConfig maps configuration onto widget behavior.
func OptionsFromConfig(cfg *config.Config) chat.Options {
	opts := chat.DefaultOptions()
	opts.Category = cfg.Chat.Category
	opts.Priority = cfg.Chat.Priority
	opts.HistoryLimit = cfg.Chat.HistoryLimit
	opts.WelcomeMessage = cfg.Chat.WelcomeMessage
	opts.SurfaceFailures = cfg.Chat.SurfaceFailures
	opts.AutoReply = cfg.AutoReply.Enabled
	opts.AfterSend = cfg.AutoReply.AfterSend
	opts.TypingDelay = cfg.GetTypingDelay()
	opts.ReplyDelay = cfg.GetReplyDelay()
	opts.AgentName = cfg.AutoReply.AgentName
	opts.ResponseTime = cfg.AutoReply.ResponseTime
	return opts
}
