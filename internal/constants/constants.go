package constants

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 限流 key 作用域常量
const (
	RateLimitScopeOtpRequestEmail = "otp_request:email"
	RateLimitScopeOtpRequestIP    = "otp_request:ip"
	RateLimitScopeOtpCooldown     = "otp_cooldown"
)

// Token 类型常量
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Token 传输方式常量
const (
	AuthTransportBody   = "body"
	AuthTransportCookie = "cookie"
)

// Cookie 名称常量
const (
	CookieAccessToken  = "accessToken"
	CookieRefreshToken = "refreshToken"
)

// 验证码提供方常量
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)

// 验证码校验场景常量
const (
	CaptchaSceneRequestOtp = "request_otp"
)

// 队列常量
const (
	QueueDefault     = "default"
	TaskWelcomeEmail = "auth:welcome_email"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "aa"
)
