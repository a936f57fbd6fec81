package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/gashu/pkg/domain"
)

// User-facing replies. Everything the user sees is Korean.
const (
	msgApology      = "죄송해요, 내부 오류가 발생했어요. 잠시 후 다시 시도해주세요."
	msgRetry        = "죄송해요, 다시 한 번 말씀해 주세요."
	msgOffTopic     = "죄송해요, 버스 길찾기와 관련된 내용만 도와드릴 수 있어요. 어디로 가고 싶으신지 말씀해 주세요."
	msgGreeting     = "안녕하세요! 어디로 가고 싶으신가요?"
	msgAskDeparture = "현재 위치에서 출발하시겠어요? 아니면 출발지를 알려주세요"
	msgNoGPS        = "현재 위치를 확인할 수 없어요. 출발지를 직접 알려주세요."

	msgDestNotFound      = "죄송해요, 해당 목적지를 찾을 수 없어요. 다른 장소나 주소를 말씀해 주세요."
	msgDepNotFound       = "죄송해요, 해당 출발지를 찾을 수 없어요. 다른 장소나 주소를 말씀해 주세요."
	msgDestCoordNotFound = "좌표를 찾을 수 없어요. 주소를 다시 확인해 주세요."
	msgDepCoordNotFound  = "좌표를 찾을 수 없어요. 출발지를 다시 알려주세요."
	msgNoRoute           = "죄송해요, 해당 경로의 버스 정보를 찾을 수 없어요. 다른 출발지나 목적지를 말씀해 주세요."
)

// place labels the endpoint in search replies.
type place string

const (
	placeDest place = "목적지"
	placeDep  place = "출발지"
)

// searchReply confirms a single hit or lists several, numbered from 1.
func searchReply(p place, results []domain.Candidate) string {
	if len(results) == 1 {
		r := results[0]
		return fmt.Sprintf("검색된 %s는 '%s' (%s)입니다. 이 주소가 맞나요?", p, r.Name, r.Address)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "여러 개의 %s가 검색되었어요. 원하는 %s를 선택해 주세요:", p, p)
	for i, r := range results {
		fmt.Fprintf(&b, "\n%d번. %s (%s)", i+1, r.Name, r.Address)
	}
	return b.String()
}

// arrivalReply phrases one realtime prediction. ArrTime is rounded up to
// whole minutes.
func arrivalReply(destName string, a domain.Arrival) string {
	minutes := (a.ArrTime + 59) / 60
	prefix := ""
	if destName != "" {
		prefix = destName + "에 가는 "
	}
	return fmt.Sprintf("%s%s번 버스가 %s 정류장에 %d분 뒤에 도착해요. %d 정거장 남았어요.",
		prefix, a.RouteNo, a.NodeName, minutes, a.ArrPrevStationCnt)
}

func noArrivalReply(routeNo string) string {
	return fmt.Sprintf("요청하신 %s번 버스 정보가 없습니다. 다른 버스를 시도해 주세요.", routeNo)
}
