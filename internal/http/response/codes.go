package response

// 业务状态码与 HTTP 状态码保持一致
const (
	CodeOK              = 200
	CodeCreated         = 201
	CodeNoContent       = 204
	CodeBadRequest      = 400
	CodeUnauthorized    = 401
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeTooManyRequests = 429
	CodeInternal        = 500
)
