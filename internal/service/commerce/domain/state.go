package domain

// State 定义了订单的生命周期状态
type State string

const (
	StateCreated State = "CREATED" // 已通过实时价格校验，正在预留库存和券
	StatePlaced  State = "PLACED"  // 库存与券均已扣减，订单生效
	StateFailed  State = "FAILED"  // 提交失败，已执行补偿
)
