package models

// ClientDashboard - сводка для клиента.
type ClientDashboard struct {
	RecentOrders  []*ClientOrder
	PendingOrders []*ClientOrder
	PendingCount  int
	TopArtisans   []*User
}

// ArtisanDashboard - сводка для ремесленника.
type ArtisanDashboard struct {
	RecentClientOrders []*ClientOrder
	RecentSupplyOrders []*ArtisanOrder
	TotalClientOrders  int
	CompletedOrders    int
	// CompletionRate - доля завершённых среди принятых в работу заказов, в процентах.
	CompletionRate float64
	RecentRatings  []*Rating
	RatingStats    *RatingStats
}

type ClientDashboardResponse struct {
	RecentOrders  []ClientOrderResponse `json:"recent_orders"`
	PendingOrders []ClientOrderResponse `json:"pending_orders"`
	PendingCount  int                   `json:"pending_count"`
	TopArtisans   []UserResponse        `json:"top_artisans"`
}

type ArtisanDashboardResponse struct {
	RecentClientOrders []ClientOrderResponse  `json:"recent_client_orders"`
	RecentSupplyOrders []ArtisanOrderResponse `json:"recent_supply_orders"`
	TotalClientOrders  int                    `json:"total_client_orders"`
	CompletedOrders    int                    `json:"completed_orders"`
	CompletionRate     float64                `json:"completion_rate"`
	RecentRatings      []RatingResponse       `json:"recent_ratings"`
	RatingStats        *RatingStats           `json:"rating_stats"`
}

// ToResponse преобразует сводку в DTO.
func (d *ClientDashboard) ToResponse() ClientDashboardResponse {
	return ClientDashboardResponse{
		RecentOrders:  ClientOrdersToResponse(d.RecentOrders),
		PendingOrders: ClientOrdersToResponse(d.PendingOrders),
		PendingCount:  d.PendingCount,
		TopArtisans:   UsersToResponse(d.TopArtisans),
	}
}

// ToResponse преобразует сводку в DTO.
func (d *ArtisanDashboard) ToResponse() ArtisanDashboardResponse {
	return ArtisanDashboardResponse{
		RecentClientOrders: ClientOrdersToResponse(d.RecentClientOrders),
		RecentSupplyOrders: ArtisanOrdersToResponse(d.RecentSupplyOrders),
		TotalClientOrders:  d.TotalClientOrders,
		CompletedOrders:    d.CompletedOrders,
		CompletionRate:     d.CompletionRate,
		RecentRatings:      RatingsToResponse(d.RecentRatings),
		RatingStats:        d.RatingStats,
	}
}

func ClientOrdersToResponse(list []*ClientOrder) []ClientOrderResponse {
	resp := make([]ClientOrderResponse, 0, len(list))
	for _, o := range list {
		resp = append(resp, o.ToResponse())
	}
	return resp
}

func ArtisanOrdersToResponse(list []*ArtisanOrder) []ArtisanOrderResponse {
	resp := make([]ArtisanOrderResponse, 0, len(list))
	for _, o := range list {
		resp = append(resp, o.ToResponse())
	}
	return resp
}

func UsersToResponse(list []*User) []UserResponse {
	resp := make([]UserResponse, 0, len(list))
	for _, u := range list {
		resp = append(resp, u.ToResponse())
	}
	return resp
}
