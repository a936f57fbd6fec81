package dialogue

import (
	"encoding/json"
	"fmt"
)

const systemExtractor = "너는 대화의 흐름을 이해하고 사용자의 입력에서 출발지와 목적지를 추출해서 JSON 형태로 반환하는 도우미야."

const systemGuide = "너는 청주 시내버스 경로를 친절하게 안내하는 도우미야."

const jsonOnly = `아래 JSON 형식 외의 어떠한 설명, 주석, 코드블럭도 포함하지 마. 반드시 JSON 객체로 시작하고 끝나야 해.`

func classifyPrompt(message string) string {
	return fmt.Sprintf(`사용자와의 대화 기록을 기반으로 대화 흐름과 사용자의 의도를 파악해서 다음 항목을 JSON으로 반환해줘.

1. 현재 단계를 "set_dep", "set_dest", "main", "error" 중 하나로 분류해.
   - "set_dest": 목적지를 정하는 단계
   - "set_dep": 출발지를 정하는 단계
   - "main": 출발지와 목적지가 정해져 버스 경로를 안내하는 단계
   - "error": 버스 안내와 무관한 발화
2. 이번 메시지에 새로 언급된 출발지(dep)와 목적지(dest)를 추출해. 언급이 없으면 null.
3. assistant가 후보를 제시하거나 확인을 요청했고 사용자가 그중 하나를 고르거나 확인했다면
   출발지는 "requires_dep_coord": true, 목적지는 "requires_dest_coord": true.
4. 잡담이나 다른 주제라면 "error": true, 아니면 false.

%s

사용자 메시지: %q

출력 형식:
{
  "state": "set_dest | set_dep | main | error",
  "dep": "출발지명 또는 null",
  "dest": "목적지명 또는 null",
  "requires_dep_coord": true 또는 false,
  "requires_dest_coord": true 또는 false,
  "error": true 또는 false
}`, jsonOnly, message)
}

func destPrompt(message, candidates string) string {
	return fmt.Sprintf(`목적지를 정하는 대화야. 목적지 검색 결과가 있으면 참고해서 사용자가 원하는 목적지 하나를 정해.
사용자에게 보여줄 자연스러운 응답도 함께 만들어.
%s

사용자 메시지: %q
목적지 검색 결과: %s

출력 형식:
{
  "message": "사용자에게 보여줄 메시지",
  "dest": "선택한 목적지명 또는 null",
  "dest_address": "선택한 목적지 주소 또는 null"
}`, jsonOnly, message, candidates)
}

func depPrompt(message, candidates string) string {
	return fmt.Sprintf(`출발지를 정하는 대화야. 먼저 현재 위치에서 출발할지 물어보고, 현재 위치에서 출발한다면 use_gps를 true로 설정해.
다른 출발지라면 출발지 검색 결과를 참고해서 사용자가 원하는 출발지 하나를 정해.
사용자에게 보여줄 자연스러운 응답도 함께 만들어.
%s

사용자 메시지: %q
출발지 검색 결과: %s

출력 형식:
{
  "message": "사용자에게 보여줄 메시지",
  "dep": "선택한 출발지명 또는 null",
  "dep_address": "선택한 출발지 주소 또는 null",
  "use_gps": true 또는 false
}`, jsonOnly, message, candidates)
}

func routePrompt(message, routes string) string {
	return fmt.Sprintf(`다음 경로 정보를 바탕으로 사용자 메시지에 답해.
- 경로 안내를 원하면 가장 좋은 경로를 값이 0인 정보는 빼고 줄바꿈과 특수문자 없이 한 문장으로 안내하고, routeno와 nodeid는 null로 둬.
- 특정 버스의 도착 정보를 원하면 message는 null로 두고, 해당 버스의 route_name을 routeno에, start_nodeid를 nodeid에 넣어.
%s

사용자 메시지: %q
경로 정보: %s

출력 형식:
{
  "message": "안내 메시지 또는 null",
  "routeno": "버스 번호 또는 null",
  "nodeid": "출발 정류장 아이디 또는 null"
}`, jsonOnly, message, routes)
}

// compact renders v for embedding in a prompt.
func compact(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(data)
}
