package bot

import "strings"

// ActionKind — тип действия, закодированного в callback data inline-кнопки.
type ActionKind int

const (
	// ActionUnknown — нераспознанная callback data, например от кнопки
	// из сообщения прошлой версии бота.
	ActionUnknown ActionKind = iota
	// ActionUpgrade — открыть меню тарифов.
	ActionUpgrade
	// ActionSelectPlan — выбрать тариф, Arg содержит его идентификатор.
	ActionSelectPlan
	// ActionVerify — проверить оплату, Arg содержит tx_ref.
	ActionVerify
	// ActionLearnMore — показать описание сервиса.
	ActionLearnMore
	// ActionSupport — показать контакты поддержки.
	ActionSupport
	// ActionBackToMenu — вернуться в главное меню.
	ActionBackToMenu
)

const (
	callbackUpgrade    = "upgrade"
	callbackLearnMore  = "learn_more"
	callbackSupport    = "support"
	callbackBackToMenu = "back_to_menu"
	planPrefix         = "plan_"
	verifyPrefix       = "verify_"
)

// Action — разобранное действие кнопки.
type Action struct {
	Kind ActionKind
	Arg  string
}

// ParseAction разбирает callback data в действие. Любая незнакомая строка
// даёт ActionUnknown, паник и ошибок здесь нет.
func ParseAction(data string) Action {
	switch {
	case data == callbackUpgrade:
		return Action{Kind: ActionUpgrade}
	case data == callbackLearnMore:
		return Action{Kind: ActionLearnMore}
	case data == callbackSupport:
		return Action{Kind: ActionSupport}
	case data == callbackBackToMenu:
		return Action{Kind: ActionBackToMenu}
	case strings.HasPrefix(data, planPrefix):
		return Action{Kind: ActionSelectPlan, Arg: strings.TrimPrefix(data, planPrefix)}
	case strings.HasPrefix(data, verifyPrefix):
		return Action{Kind: ActionVerify, Arg: strings.TrimPrefix(data, verifyPrefix)}
	default:
		return Action{Kind: ActionUnknown, Arg: data}
	}
}
