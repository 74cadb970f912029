package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiagram = `<?xml version="1.0" encoding="UTF-8"?>
<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL">
  <bpmn:process id="Process_1" name="Order Fulfillment">
    <bpmn:startEvent id="StartEvent_1"/>
    <bpmn:task id="Task_1" name="Pick Items"/>
    <bpmn:userTask id="Task_2" name="Pack Order"/>
    <bpmn:exclusiveGateway id="Gateway_1"/>
    <bpmn:endEvent id="EndEvent_1"/>
    <bpmn:sequenceFlow id="Flow_1" sourceRef="StartEvent_1" targetRef="Task_1"/>
    <bpmn:sequenceFlow id="Flow_2" sourceRef="Task_1" targetRef="Task_2"/>
    <bpmn:sequenceFlow id="Flow_3" sourceRef="Task_2" targetRef="Gateway_1"/>
    <bpmn:sequenceFlow id="Flow_4" sourceRef="Gateway_1" targetRef="EndEvent_1"/>
  </bpmn:process>
</bpmn:definitions>`

func TestAnalyzeDiagram(t *testing.T) {
	result, err := AnalyzeDiagram(sampleDiagram)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ProcessCount)
	assert.Equal(t, 4, result.FlowCount)
	assert.Equal(t, 0, result.MessageFlowCount)
	assert.Equal(t, 5, result.TotalElements)
	assert.Equal(t, 1, result.ElementCounts["startEvent"])
	assert.Equal(t, 1, result.ElementCounts["task"])
	assert.Equal(t, 1, result.ElementCounts["userTask"])
	assert.Equal(t, 1, result.ElementCounts["exclusiveGateway"])
	assert.Equal(t, 1, result.ElementCounts["endEvent"])

	assert.Contains(t, result.Summary, "process called 'Order Fulfillment'")
	assert.Contains(t, result.Summary, "The process begins with a start event.")
	assert.Contains(t, result.Summary, "Then it performs 2 tasks.")
	assert.Contains(t, result.Summary, "a decision point where the flow can take different paths")
	assert.Contains(t, result.Summary, "Finally, the process ends with an end event.")
	assert.Contains(t, result.Summary, "connected through 4 flow connections")
}

func TestAnalyzeDiagramUnnamedProcess(t *testing.T) {
	xml := `<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL">
  <bpmn:process id="Process_1">
    <bpmn:startEvent id="Start_1"/>
    <bpmn:startEvent id="Start_2"/>
    <bpmn:endEvent id="End_1"/>
    <bpmn:endEvent id="End_2"/>
  </bpmn:process>
</bpmn:definitions>`

	result, err := AnalyzeDiagram(xml)
	require.NoError(t, err)

	assert.Contains(t, result.Summary, "This diagram shows a business process.")
	assert.Contains(t, result.Summary, "The process begins with 2 start events.")
	assert.Contains(t, result.Summary, "The process can end at 2 different end points.")
	assert.NotContains(t, result.Summary, "flow connections")
}

func TestAnalyzeDiagramEmpty(t *testing.T) {
	result, err := AnalyzeDiagram(DefaultDocument)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ProcessCount)
	assert.Equal(t, 0, result.TotalElements)
	assert.Equal(t, "This diagram appears to be empty or contains only basic structure.", result.Summary)
}

func TestAnalyzeDiagramIgnoresForeignNamespaces(t *testing.T) {
	xml := `<definitions xmlns="urn:example:other">
  <process name="Not BPMN">
    <task/>
  </process>
</definitions>`

	result, err := AnalyzeDiagram(xml)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ProcessCount)
	assert.Equal(t, 0, result.TotalElements)
}

func TestAnalyzeDiagramMalformed(t *testing.T) {
	t.Run("UnclosedElement", func(t *testing.T) {
		_, err := AnalyzeDiagram("<bpmn:definitions><unclosed")
		require.Error(t, err)
	})

	t.Run("PlainText", func(t *testing.T) {
		_, err := AnalyzeDiagram("this is not xml at all")
		require.Error(t, err)
	})

	t.Run("EmptyInput", func(t *testing.T) {
		_, err := AnalyzeDiagram("")
		require.Error(t, err)
	})

	t.Run("TextBeforeRoot", func(t *testing.T) {
		_, err := AnalyzeDiagram("oops <root/>")
		require.Error(t, err)
	})

	t.Run("TrailingElement", func(t *testing.T) {
		_, err := AnalyzeDiagram("<root/><root/>")
		require.Error(t, err)
	})

	t.Run("SurroundingWhitespaceIsFine", func(t *testing.T) {
		_, err := AnalyzeDiagram("\n  " + DefaultDocument + "\n")
		require.NoError(t, err)
	})
}

func TestAnalyzeDiagramMessageFlows(t *testing.T) {
	xml := `<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL">
  <bpmn:collaboration id="Collab_1">
    <bpmn:messageFlow id="MsgFlow_1"/>
    <bpmn:messageFlow id="MsgFlow_2"/>
  </bpmn:collaboration>
  <bpmn:process id="Process_1" name="Main">
    <bpmn:task id="Task_1"/>
  </bpmn:process>
</bpmn:definitions>`

	result, err := AnalyzeDiagram(xml)
	require.NoError(t, err)
	assert.Equal(t, 2, result.MessageFlowCount)
	assert.Equal(t, 1, result.ProcessCount)
	assert.Contains(t, result.Summary, "Then it performs one task.")
}
