package msgtask

// ShouldRespond decides whether the bot answers e. One-to-one chats are always
// answered; in groups and rooms the bot must be mentioned.
func ShouldRespond(e HookEvent) bool {
	if e.Source.Type == SourceTypeUser {
		return true
	}
	if e.Message == nil || e.Message.Mention == nil {
		return false
	}
	for _, m := range e.Message.Mention.Mentionees {
		if m.IsSelf {
			return true
		}
	}
	return false
}
