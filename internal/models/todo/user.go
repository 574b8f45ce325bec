package todo

// UserSettings - настроечная часть пользовательского документа
type UserSettings struct {
	Theme     string          `json:"theme"`
	Sort      string          `json:"sort"`
	Collapsed map[string]bool `json:"collapsed"`
}

func DefaultSettings() UserSettings {
	return UserSettings{
		Theme:     "dark",
		Sort:      "date",
		Collapsed: map[string]bool{},
	}
}

// UserData - удалённый документ users/{uid}: профиль, настройки и
// справочники проектов/тегов одним документом
type UserData struct {
	Email       string       `json:"email"`
	DisplayName string       `json:"displayName"`
	PhotoURL    string       `json:"photoURL"`
	CreatedAt   string       `json:"createdAt"`
	Settings    UserSettings `json:"settings"`
	Projects    []Project    `json:"projects"`
	Tags        []Tag        `json:"tags"`
}
