package main

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"docmanager-backend/internal/bootstrap"
	"docmanager-backend/internal/documents"
	"docmanager-backend/internal/queue"
	"docmanager-backend/internal/scan"
)

type fakeSQS struct {
	deleted []string
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	_ = ctx
	_ = params
	_ = optFns
	return &sqs.ReceiveMessageOutput{}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	_ = ctx
	_ = optFns
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func testApp() *bootstrap.App {
	repo := documents.NewMemoryRepo()
	return &bootstrap.App{
		DocumentsRepo: repo,
		ScanService:   &scan.Service{Repo: repo},
	}
}

func TestHandleMessageDeletesAfterScan(t *testing.T) {
	client := &fakeSQS{}
	app := testApp()

	body, err := queue.EncodeMessage(queue.Message{DocumentID: "doc-gone", RequestID: "req-1", Version: 1})
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}
	msg := sqstypes.Message{
		Body:          aws.String(string(body)),
		MessageId:     aws.String("m-1"),
		ReceiptHandle: aws.String("r-1"),
	}

	// The document no longer exists; the scan is a no-op and the job
	// still completes so the message leaves the queue.
	handleMessage(context.Background(), app, client, "q", msg)

	if len(client.deleted) != 1 || client.deleted[0] != "r-1" {
		t.Fatalf("expected message deleted, got %v", client.deleted)
	}
}

func TestHandleMessageDropsMalformedBody(t *testing.T) {
	client := &fakeSQS{}
	app := testApp()

	msg := sqstypes.Message{
		Body:          aws.String("{not json"),
		MessageId:     aws.String("m-2"),
		ReceiptHandle: aws.String("r-2"),
	}

	handleMessage(context.Background(), app, client, "q", msg)

	if len(client.deleted) != 1 || client.deleted[0] != "r-2" {
		t.Fatalf("expected malformed message deleted, got %v", client.deleted)
	}
}

func TestHandleMessageDropsMissingDocumentID(t *testing.T) {
	client := &fakeSQS{}
	app := testApp()

	msg := sqstypes.Message{
		Body:          aws.String(`{"requestId":"req-3","version":1}`),
		MessageId:     aws.String("m-3"),
		ReceiptHandle: aws.String("r-3"),
	}

	handleMessage(context.Background(), app, client, "q", msg)

	if len(client.deleted) != 1 || client.deleted[0] != "r-3" {
		t.Fatalf("expected message without document id deleted, got %v", client.deleted)
	}
}
