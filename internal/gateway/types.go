package gateway

// createPaymentRequest — тело запроса на создание платёжной страницы.
type createPaymentRequest struct {
	TxRef          string         `json:"tx_ref"`
	Amount         float64        `json:"amount"`
	Currency       string         `json:"currency"`
	Meta           paymentMeta    `json:"meta"`
	Customer       customer       `json:"customer"`
	Customizations customizations `json:"customizations"`
}

// paymentMeta кладётся в платёж и возвращается шлюзом при верификации.
// По ней восстанавливаются тариф и владелец платежа.
type paymentMeta struct {
	UserID string `json:"user_id"`
	Plan   string `json:"plan"`
}

type customer struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phonenumber"`
	Name        string `json:"name"`
}

type customizations struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
}

// createPaymentResponse — ответ шлюза на создание платежа.
type createPaymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

// verifyPaymentResponse — ответ шлюза на верификацию по tx_ref.
type verifyPaymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status string      `json:"status"`
		Meta   paymentMeta `json:"meta"`
	} `json:"data"`
}

// PaymentLink — результат создания платежа: свежий tx_ref и адрес
// платёжной страницы.
type PaymentLink struct {
	TxRef string
	URL   string
}

// Outcome — исход верификации платежа со стороны шлюза.
type Outcome int

const (
	// OutcomePending — платёж ещё не завершён, можно проверить позже.
	OutcomePending Outcome = iota
	// OutcomeSuccessful — шлюз подтвердил оплату.
	OutcomeSuccessful
	// OutcomeFailed — оплата не прошла.
	OutcomeFailed
)

// VerificationResult — разобранный ответ верификации. PlanID и UserID
// восстановлены из метаданных платежа и заполнены только при
// OutcomeSuccessful.
type VerificationResult struct {
	Outcome Outcome
	PlanID  string
	UserID  int64
}
