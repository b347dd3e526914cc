package models

// CartItem est un instantané d'article au moment de l'achat :
// prix unitaire figé, pas une référence vive au catalogue.
type CartItem struct {
	ReferenceID string  `json:"referenceId" bson:"reference_id" binding:"required"`
	Title       string  `json:"title" bson:"title" binding:"required"`
	UnitPrice   float64 `json:"unitPrice" bson:"unit_price"`
	Quantity    int     `json:"quantity" bson:"quantity"`
}

// CartTotal calcule le montant total d'une liste d'articles
func CartTotal(items []CartItem) float64 {
	var total float64
	for _, item := range items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}
