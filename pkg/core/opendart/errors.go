package opendart

// OpenDART API status codes. The API reports errors in-band: the HTTP layer
// always answers 200 and the JSON status field carries the outcome.
const (
	StatusOK          = "000"
	StatusNoData      = "013"
	StatusRateLimited = "020"
)

// StatusMessages maps known status codes to readable descriptions for logs.
var StatusMessages = map[string]string{
	"000": "정상",
	"010": "등록되지 않은 키",
	"011": "사용할 수 없는 키",
	"012": "접근할 수 없는 IP",
	"013": "조회된 데이터가 없음",
	"014": "파일이 존재하지 않음",
	"020": "요청 제한 초과",
	"021": "조회 가능한 회사 개수 초과",
	"100": "필드의 부적절한 값",
	"101": "부적절한 접근",
	"800": "시스템 점검",
	"900": "정의되지 않은 오류",
	"901": "사용자 계정의 개인정보보유기간 만료",
}

// StatusMessage returns the description of a status code, falling back to the
// code itself for anything unlisted.
func StatusMessage(code string) string {
	if msg, ok := StatusMessages[code]; ok {
		return msg
	}
	return code
}
