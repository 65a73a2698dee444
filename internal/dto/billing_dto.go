package dto

type CreateSubscriptionRequest struct {
	PriceID string `json:"priceId"`
	Tier    string `json:"tier"`
}

type CreateSubscriptionResponse struct {
	SubscriptionID string `json:"subscriptionId"`
	ClientSecret   string `json:"clientSecret"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}
