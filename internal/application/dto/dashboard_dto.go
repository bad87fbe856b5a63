package dto

// WarehouseDashboardResponse métricas del panel del almoxarifado.
type WarehouseDashboardResponse struct {
	TotalProducts     int                  `json:"total_products"`
	TotalAllocations  int                  `json:"total_allocations"`
	LowStockProducts  int                  `json:"low_stock_products"`
	PendingRequests   int                  `json:"pending_requests"`
	RecentAllocations []AllocationResponse `json:"recent_allocations"`
}

// ProductionDashboardResponse métricas del panel de producción (solo propias).
type ProductionDashboardResponse struct {
	TotalRequests     int                  `json:"total_requests"`
	PendingRequests   int                  `json:"pending_requests"`
	ApprovedRequests  int                  `json:"approved_requests"`
	RejectedRequests  int                  `json:"rejected_requests"`
	RecentAllocations []AllocationResponse `json:"recent_allocations"`
}
