package api

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const bpmnNamespace = "http://www.omg.org/spec/BPMN/20100524/MODEL"

// bpmnElementTypes is the fixed set of flow-node types counted by the
// summary analysis.
var bpmnElementTypes = map[string]bool{
	"startEvent":             true,
	"endEvent":               true,
	"task":                   true,
	"userTask":               true,
	"serviceTask":            true,
	"scriptTask":             true,
	"businessRuleTask":       true,
	"manualTask":             true,
	"sendTask":               true,
	"receiveTask":            true,
	"exclusiveGateway":       true,
	"inclusiveGateway":       true,
	"parallelGateway":        true,
	"eventBasedGateway":      true,
	"complexGateway":         true,
	"intermediateThrowEvent": true,
	"intermediateCatchEvent": true,
	"boundaryEvent":          true,
}

var bpmnTaskTypes = []string{
	"task", "userTask", "serviceTask", "scriptTask",
	"businessRuleTask", "manualTask", "sendTask", "receiveTask",
}

var bpmnGatewayTypes = []string{
	"exclusiveGateway", "inclusiveGateway", "parallelGateway",
	"eventBasedGateway", "complexGateway",
}

// SummaryResult is the analysis of one BPMN document
type SummaryResult struct {
	Summary          string         `json:"summary"`
	ProcessCount     int            `json:"process_count"`
	ElementCounts    map[string]int `json:"element_counts"`
	FlowCount        int            `json:"flow_count"`
	MessageFlowCount int            `json:"message_flow_count"`
	TotalElements    int            `json:"total_elements"`
}

// AnalyzeDiagram parses a BPMN XML document and produces a plain-English
// summary plus element statistics. The input must be a well-formed document
// with a single root element; plain text or content outside the root is a
// parse error. It is a pure function over the document text and touches no
// session state.
func AnalyzeDiagram(xmlText string) (*SummaryResult, error) {
	decoder := xml.NewDecoder(strings.NewReader(xmlText))

	elementCounts := make(map[string]int)
	var elementNames []string
	processCount := 0
	flowCount := 0
	messageFlowCount := 0
	processDepth := 0
	depth := 0
	rootClosed := false

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			if rootClosed {
				return nil, fmt.Errorf("junk after document element")
			}
			depth++
			if t.Name.Space != bpmnNamespace {
				continue
			}
			switch {
			case t.Name.Local == "process":
				processCount++
				name := attrValue(t, "name")
				if name == "" {
					name = "Unnamed Process"
				}
				elementNames = append(elementNames, name)
				processDepth++
			case t.Name.Local == "sequenceFlow":
				flowCount++
			case t.Name.Local == "messageFlow":
				messageFlowCount++
			case processDepth > 0 && bpmnElementTypes[t.Name.Local]:
				elementCounts[t.Name.Local]++
				if name := attrValue(t, "name"); name != "" {
					elementNames = append(elementNames, name)
				}
			}
		case xml.EndElement:
			depth--
			if depth == 0 {
				rootClosed = true
			}
			if t.Name.Space == bpmnNamespace && t.Name.Local == "process" {
				processDepth--
			}
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return nil, fmt.Errorf("text outside document element")
			}
		}
	}

	if !rootClosed {
		return nil, fmt.Errorf("no element found")
	}

	totalElements := 0
	for _, n := range elementCounts {
		totalElements += n
	}

	return &SummaryResult{
		Summary:          buildSummaryText(processCount, elementCounts, elementNames, flowCount),
		ProcessCount:     processCount,
		ElementCounts:    elementCounts,
		FlowCount:        flowCount,
		MessageFlowCount: messageFlowCount,
		TotalElements:    totalElements,
	}, nil
}

// buildSummaryText assembles the sentence-by-sentence English description
func buildSummaryText(processCount int, elementCounts map[string]int, elementNames []string, flowCount int) string {
	if processCount == 0 {
		return "This diagram appears to be empty or contains only basic structure."
	}

	var parts []string

	processName := "the process"
	if len(elementNames) > 0 {
		processName = elementNames[0]
	}
	if processName != "" && processName != "Unnamed Process" && processName != "the process" {
		parts = append(parts, fmt.Sprintf("This diagram shows a process called '%s'.", processName))
	} else {
		parts = append(parts, "This diagram shows a business process.")
	}

	if startEvents := elementCounts["startEvent"]; startEvents == 1 {
		parts = append(parts, "The process begins with a start event.")
	} else if startEvents > 1 {
		parts = append(parts, fmt.Sprintf("The process begins with %d start events.", startEvents))
	}

	totalTasks := 0
	for _, taskType := range bpmnTaskTypes {
		totalTasks += elementCounts[taskType]
	}
	if totalTasks == 1 {
		parts = append(parts, "Then it performs one task.")
	} else if totalTasks > 1 {
		parts = append(parts, fmt.Sprintf("Then it performs %d tasks.", totalTasks))
	}

	totalGateways := 0
	for _, gatewayType := range bpmnGatewayTypes {
		totalGateways += elementCounts[gatewayType]
	}
	if totalGateways == 1 {
		parts = append(parts, "The process includes a decision point where the flow can take different paths.")
	} else if totalGateways > 1 {
		parts = append(parts, fmt.Sprintf("The process includes %d decision points where the flow can branch.", totalGateways))
	}

	if endEvents := elementCounts["endEvent"]; endEvents == 1 {
		parts = append(parts, "Finally, the process ends with an end event.")
	} else if endEvents > 1 {
		parts = append(parts, fmt.Sprintf("The process can end at %d different end points.", endEvents))
	}

	if flowCount > 1 {
		parts = append(parts, fmt.Sprintf("All steps are connected through %d flow connections.", flowCount))
	}

	return strings.Join(parts, " ")
}

func attrValue(el xml.StartElement, name string) string {
	for _, attr := range el.Attr {
		if attr.Name.Local == name {
			return attr.Value
		}
	}
	return ""
}
